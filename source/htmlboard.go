package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trendwatch/model"
)

const defaultItemSelector = "ol li a, ul.hot-list li a"

// HTMLBoard scrapes a trending-board page whose entries are anchor elements
// in board order. The CSS selector is configurable per site; each matched
// anchor contributes its text as the title and its href as the URL.
type HTMLBoard struct {
	id       string
	name     string
	pageURL  string
	selector string
	client   *http.Client
}

// NewHTMLBoard wires an HTML scraping adapter. An empty selector falls back
// to a generic list-of-links selector.
func NewHTMLBoard(id, name, pageURL, selector string, client *http.Client) *HTMLBoard {
	if selector == "" {
		selector = defaultItemSelector
	}
	return &HTMLBoard{
		id:       id,
		name:     name,
		pageURL:  pageURL,
		selector: selector,
		client:   defaultClient(client),
	}
}

// ID identifies the platform inside the registry.
func (b *HTMLBoard) ID() string { return b.id }

// Name is the human-readable platform name.
func (b *HTMLBoard) Name() string { return b.name }

// Fetch downloads the board page and extracts ranked entries.
func (b *HTMLBoard) Fetch(ctx context.Context) ([]model.RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", b.id, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", b.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", b.id, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", b.id, err)
	}

	base, err := url.Parse(b.pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s base url: %w", b.id, err)
	}

	now := time.Now()
	var items []model.RawItem
	doc.Find(b.selector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		href := sel.AttrOr("href", "")
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
		items = append(items, model.RawItem{
			Title:      title,
			URL:        href,
			PlatformID: b.id,
			Rank:       len(items) + 1,
			CapturedAt: now,
		})
	})

	return items, nil
}
