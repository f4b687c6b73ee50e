package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trendwatch/model"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3/videos"

// YouTube fetches the most-popular chart for one region via the YouTube
// Data API v3. Chart order is the ranking.
type YouTube struct {
	id      string
	name    string
	apiKey  string
	region  string
	client  *http.Client
	baseURL string
}

// NewYouTube wires a trending-videos adapter for one region.
func NewYouTube(id, name, apiKey, region string, client *http.Client) *YouTube {
	if region == "" {
		region = "US"
	}
	return &YouTube{
		id:      id,
		name:    name,
		apiKey:  apiKey,
		region:  region,
		client:  defaultClient(client),
		baseURL: youtubeBaseURL,
	}
}

// ID identifies the platform inside the registry.
func (y *YouTube) ID() string { return y.id }

// Name is the human-readable platform name.
func (y *YouTube) Name() string { return y.name }

type youtubeResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch retrieves the most-popular chart and normalizes it to raw items.
func (y *YouTube) Fetch(ctx context.Context) ([]model.RawItem, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("%s: api_key is required", y.id)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", y.region)
	params.Set("maxResults", "50")
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", y.id, err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", y.id, err)
	}
	defer resp.Body.Close()

	var body youtubeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", y.id, err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("%s API error %d: %s", y.id, body.Error.Code, body.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", y.id, resp.StatusCode)
	}

	now := time.Now()
	items := make([]model.RawItem, 0, len(body.Items))
	for i, video := range body.Items {
		if video.Snippet.Title == "" {
			continue
		}
		watchURL := "https://www.youtube.com/watch?v=" + video.ID
		items = append(items, model.RawItem{
			Title:      video.Snippet.Title,
			URL:        watchURL,
			MobileURL:  "https://m.youtube.com/watch?v=" + video.ID,
			PlatformID: y.id,
			Rank:       i + 1,
			CapturedAt: now,
		})
	}
	return items, nil
}
