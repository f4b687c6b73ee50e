package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trendwatch/model"
)

// HotList fetches a ranked listing from a hot-list aggregation API that
// returns JSON of the form {"status": "...", "items": [{"title", "url",
// "mobileUrl"}, ...]}. Item order is the board order; ranks are assigned
// 1-based from it.
type HotList struct {
	id     string
	name   string
	url    string
	client *http.Client
}

// NewHotList wires a hot-list adapter for one platform board endpoint.
func NewHotList(id, name, url string, client *http.Client) *HotList {
	return &HotList{id: id, name: name, url: url, client: defaultClient(client)}
}

// ID identifies the platform inside the registry.
func (h *HotList) ID() string { return h.id }

// Name is the human-readable platform name.
func (h *HotList) Name() string { return h.name }

type hotListResponse struct {
	Status string `json:"status"`
	Items  []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		MobileURL string `json:"mobileUrl"`
	} `json:"items"`
}

// Fetch retrieves the board and normalizes entries to raw items.
func (h *HotList) Fetch(ctx context.Context) ([]model.RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", h.id, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", h.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", h.id, resp.StatusCode)
	}

	var body hotListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", h.id, err)
	}

	now := time.Now()
	items := make([]model.RawItem, 0, len(body.Items))
	for i, entry := range body.Items {
		if entry.Title == "" {
			continue
		}
		items = append(items, model.RawItem{
			Title:      entry.Title,
			URL:        entry.URL,
			MobileURL:  entry.MobileURL,
			PlatformID: h.id,
			Rank:       i + 1,
			CapturedAt: now,
		})
	}
	return items, nil
}
