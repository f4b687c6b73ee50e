// Package pipeline orchestrates one aggregation run: fetch every source,
// snapshot the batch, aggregate the mode's window, filter novelty when
// required, and deliver the rendered report to each notification channel.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendwatch/aggregate"
	"trendwatch/model"
	"trendwatch/novelty"
	"trendwatch/report"
	"trendwatch/source"
	"trendwatch/storage"
)

// Store provides the persistence operations the pipeline needs.
type Store interface {
	SaveBatch(mode model.Mode, capturedAt time.Time, items []model.RawItem) (int64, error)
	ItemsSince(since time.Time) ([]model.RawItem, error)
	LatestBatchItems() ([]model.RawItem, error)
	BatchCountSince(since time.Time) (int, error)
	LoadSeen(retention time.Duration, now time.Time) (novelty.Seen, error)
	MarkSeen(entries []storage.SeenEntry, now time.Time) error
	RecordRun(rec storage.RunRecord) error
}

// Notifier delivers one rendered report to a channel.
type Notifier interface {
	Name() string
	Format() report.Format
	Send(ctx context.Context, text string) error
}

// Excerpter pulls a readable excerpt from a story URL.
type Excerpter interface {
	Excerpt(ctx context.Context, url string) (string, error)
}

// HTMLWriter persists the HTML file report for one run.
type HTMLWriter interface {
	WriteHTML(rep model.RunReport, threshold int, dir string) (string, error)
}

// Config holds the per-run settings the pipeline reads.
type Config struct {
	Mode          model.Mode
	Rules         []model.KeywordRule
	Location      *time.Location
	MaxBatches    int
	Retention     time.Duration
	RankThreshold int
	ReportDir     string // empty disables the HTML file report
}

// Runner executes the end-to-end aggregation workflow.
type Runner struct {
	sources   []source.Source
	store     Store
	notifiers []Notifier
	excerpter Excerpter // nil disables preview excerpts
	html      HTMLWriter
	config    Config

	now func() time.Time
}

// NewRunner creates a Runner with all dependencies. excerpter may be nil.
func NewRunner(sources []source.Source, store Store, notifiers []Notifier, excerpter Excerpter, cfg Config) *Runner {
	return &Runner{
		sources:   sources,
		store:     store,
		notifiers: notifiers,
		excerpter: excerpter,
		html:      htmlFileWriter{},
		config:    cfg,
		now:       time.Now,
	}
}

type htmlFileWriter struct{}

func (htmlFileWriter) WriteHTML(rep model.RunReport, threshold int, dir string) (string, error) {
	return report.WriteHTML(rep, threshold, dir)
}

// Run executes one complete aggregation cycle. Per-source fetch failures are
// reported in the output, never fatal; storage failures abort the run.
func (r *Runner) Run(ctx context.Context) error {
	started := r.now().In(r.config.Location)
	slog.Info("run starting", "mode", r.config.Mode, "sources", len(r.sources))

	err := r.run(ctx, started)

	rec := storage.RunRecord{
		Mode:       string(r.config.Mode),
		StartedAt:  started,
		FinishedAt: r.now(),
		Status:     "ok",
	}
	if err != nil {
		rec.Status = "failed"
		rec.Detail = err.Error()
	}
	if recErr := r.store.RecordRun(rec); recErr != nil {
		slog.Error("failed to record run", "error", recErr)
	}
	return err
}

func (r *Runner) run(ctx context.Context, started time.Time) error {
	// 1. Fetch every source; a failing platform is skipped and reported.
	var items []model.RawItem
	var failed []string
	for _, src := range r.sources {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fetched, err := src.Fetch(ctx)
		if err != nil {
			slog.Error("source fetch failed", "source", src.ID(), "error", err)
			failed = append(failed, src.Name())
			continue
		}
		slog.Info("source fetched", "source", src.ID(), "items", len(fetched))
		items = append(items, fetched...)
	}

	// 2. Snapshot the batch so later runs in the window can replay it.
	batchID, err := r.store.SaveBatch(r.config.Mode, started, items)
	if err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	slog.Info("batch saved", "batch_id", batchID, "items", len(items))

	// 3. Load the mode's aggregation window.
	windowItems, batchCount, err := r.window(started)
	if err != nil {
		return err
	}

	rep := aggregate.Run(aggregate.Input{
		Items:         windowItems,
		Rules:         r.config.Rules,
		Mode:          r.config.Mode,
		BatchCount:    batchCount,
		FailedSources: failed,
	})
	slog.Info("aggregated", "groups", len(rep.Groups), "stories", rep.TotalStories, "skipped", rep.Skipped)

	// 4. Incremental runs surface only never-notified stories. The seen set
	// is authoritative here, so storage errors abort the run instead of
	// re-notifying everything.
	var seenEntries []storage.SeenEntry
	if r.config.Mode == model.ModeIncremental {
		seen, err := r.store.LoadSeen(r.config.Retention, started)
		if err != nil {
			return fmt.Errorf("loading seen set: %w", err)
		}
		seenEntries = collectSeenEntries(rep)
		rep, _ = novelty.FilterNew(rep, seen, started)
		slog.Info("novelty filtered", "new_stories", rep.TotalStories)
	}

	if r.config.ReportDir != "" {
		path, err := r.html.WriteHTML(rep, r.config.RankThreshold, r.config.ReportDir)
		if err != nil {
			slog.Error("failed to write HTML report", "error", err)
		} else {
			slog.Info("HTML report written", "path", path)
		}
	}

	if rep.TotalStories == 0 && len(rep.FailedSources) == 0 {
		slog.Info("nothing to notify")
		return r.markSeen(seenEntries, started)
	}

	excerpt := r.topStoryExcerpt(ctx, rep)

	// 5. Deliver to every channel; one channel failing must not silence the
	// rest, but the seen set is only advanced after a fully clean delivery.
	var sendErr error
	for _, n := range r.notifiers {
		text := report.Render(rep, r.config.RankThreshold, n.Format())
		if excerpt != "" {
			text += "\n\n" + excerpt
		}
		if err := n.Send(ctx, text); err != nil {
			slog.Error("notification failed", "channel", n.Name(), "error", err)
			sendErr = fmt.Errorf("sending to %s: %w", n.Name(), err)
			continue
		}
		slog.Info("notification sent", "channel", n.Name())
	}
	if sendErr != nil {
		return sendErr
	}

	return r.markSeen(seenEntries, started)
}

// window returns the raw items and batch count for the configured mode.
func (r *Runner) window(started time.Time) ([]model.RawItem, int, error) {
	if r.config.Mode == model.ModeCurrent {
		items, err := r.store.LatestBatchItems()
		if err != nil {
			return nil, 0, fmt.Errorf("loading latest batch: %w", err)
		}
		return items, 1, nil
	}

	dayStart := time.Date(started.Year(), started.Month(), started.Day(), 0, 0, 0, 0, r.config.Location)
	items, err := r.store.ItemsSince(dayStart)
	if err != nil {
		return nil, 0, fmt.Errorf("loading day window: %w", err)
	}
	count, err := r.store.BatchCountSince(dayStart)
	if err != nil {
		return nil, 0, fmt.Errorf("counting batches: %w", err)
	}
	if count > r.config.MaxBatches {
		count = r.config.MaxBatches
	}
	return items, count, nil
}

// markSeen advances the seen set after a clean incremental delivery.
// Re-sighted stories only get their last-seen time bumped.
func (r *Runner) markSeen(entries []storage.SeenEntry, now time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.store.MarkSeen(entries, now); err != nil {
		return fmt.Errorf("marking stories seen: %w", err)
	}
	slog.Info("seen set updated", "entries", len(entries))
	return nil
}

// collectSeenEntries flattens every story in the report, pre-novelty-filter,
// so re-sighted stories stay alive in the retention window.
func collectSeenEntries(rep model.RunReport) []storage.SeenEntry {
	unique := make(map[model.Identity]bool)
	var entries []storage.SeenEntry
	for _, group := range rep.Groups {
		for _, story := range group.Stories {
			if unique[story.Identity] {
				continue
			}
			unique[story.Identity] = true
			entries = append(entries, storage.SeenEntry{
				Identity: story.Identity,
				Platform: story.PlatformID,
			})
		}
	}
	return entries
}

// topStoryExcerpt fetches a short readable excerpt for the highest-placed
// story so notifications carry a preview. Failures only cost the excerpt.
func (r *Runner) topStoryExcerpt(ctx context.Context, rep model.RunReport) string {
	if r.excerpter == nil {
		return ""
	}
	for _, group := range rep.Groups {
		for _, story := range group.Stories {
			if story.Identity.URL == "" {
				continue
			}
			text, err := r.excerpter.Excerpt(ctx, story.Identity.URL)
			if err != nil {
				slog.Warn("excerpt failed", "url", story.Identity.URL, "error", err)
				return ""
			}
			return text
		}
	}
	return ""
}
