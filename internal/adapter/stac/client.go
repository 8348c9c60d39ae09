// Package stac queries a STAC API for Landsat scenes over the AOI.
package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	gostac "github.com/planetlabs/go-stac"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/couchcryptid/lst-etl/internal/domain"
)

const (
	defaultPageSize = 250
	maxPages        = 1000
)

// Auth holds optional OAuth2 client-credentials settings.
type Auth struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewHTTPClient returns an HTTP client with timeout. When auth carries a
// client ID, requests are authorized with client-credentials tokens.
func NewHTTPClient(ctx context.Context, auth Auth, timeout time.Duration) *http.Client {
	if auth.ClientID == "" {
		return &http.Client{Timeout: timeout}
	}
	cc := clientcredentials.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     auth.TokenURL,
	}
	c := cc.Client(ctx)
	c.Timeout = timeout
	return c
}

// Client implements pipeline.Catalog against a STAC API /search endpoint.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxCloudCover float64
	pageSize      int
	logger        *slog.Logger
}

// NewClient creates a STAC search client. Scenes above maxCloudCover percent
// are dropped; 100 disables the filter.
func NewClient(baseURL string, httpClient *http.Client, maxCloudCover float64, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		maxCloudCover: maxCloudCover,
		pageSize:      defaultPageSize,
		logger:        logger,
	}
}

// Scenes returns every scene of collection intersecting the AOI and acquired
// within dates, following pagination links. Items lacking a required band or
// a parseable datetime are skipped.
func (c *Client) Scenes(ctx context.Context, aoi domain.AreaOfInterest, dates domain.DateRange, collection string) ([]domain.SceneRecord, error) {
	body, err := json.Marshal(c.searchBody(aoi, dates, collection))
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	var (
		scenes  []domain.SceneRecord
		skipped int
		method  = http.MethodPost
		target  = c.baseURL + "/search"
	)
	for page := 0; page < maxPages; page++ {
		resp, err := c.doSearch(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Features {
			if item == nil {
				skipped++
				continue
			}
			scene, err := toScene(item)
			if err != nil {
				skipped++
				c.logger.Warn("skipping stac item", "item", item.Id, "error", err)
				continue
			}
			if !dates.Contains(scene.Acquired) || !c.cloudCoverOK(scene) {
				continue
			}
			scenes = append(scenes, scene)
		}

		next := resp.next()
		if next == nil || len(resp.Features) == 0 {
			break
		}
		method, target = http.MethodGet, next.Href
		if strings.EqualFold(next.Method, http.MethodPost) {
			method = http.MethodPost
			if body, err = nextBody(body, next); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Info("catalog query complete",
		"collection", collection,
		"range", dates.String(),
		"scenes", len(scenes),
		"skipped", skipped,
	)
	return scenes, nil
}

// nextBody returns the request body for a POST next link. With merge set,
// the link body overrides fields of the previous body instead of replacing it.
func nextBody(prev []byte, next *searchLink) ([]byte, error) {
	if len(next.Body) == 0 {
		return prev, nil
	}
	if !next.Merge {
		return next.Body, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(prev, &merged); err != nil {
		return nil, fmt.Errorf("decode previous search body: %w", err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(next.Body, &overlay); err != nil {
		return nil, fmt.Errorf("decode next link body: %w", err)
	}
	for k, v := range overlay {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode merged search body: %w", err)
	}
	return out, nil
}

func (c *Client) searchBody(aoi domain.AreaOfInterest, dates domain.DateRange, collection string) searchRequest {
	req := searchRequest{
		Collections: []string{collection},
		Intersects:  geojson.NewGeometry(aoi.Polygon()),
		Datetime:    datetimeInterval(dates),
		Limit:       c.pageSize,
	}
	if c.maxCloudCover < 100 {
		req.Query = map[string]map[string]any{
			"eo:cloud_cover": {"lte": c.maxCloudCover},
		}
	}
	return req
}

func (c *Client) cloudCoverOK(s domain.SceneRecord) bool {
	return c.maxCloudCover >= 100 || s.CloudCover <= c.maxCloudCover
}

func (c *Client) doSearch(ctx context.Context, method, target string, body []byte) (*searchResponse, error) {
	var reader io.Reader
	if method == http.MethodPost {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "stac search", "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stac search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("stac API error: status %d: %s", resp.StatusCode, msg)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// datetimeInterval renders the half-open range as a closed STAC interval
// ending one second before End.
func datetimeInterval(r domain.DateRange) string {
	end := r.End.Add(-time.Second)
	if end.Before(r.Start) {
		end = r.Start
	}
	return r.Start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)
}

func toScene(item *gostac.Item) (domain.SceneRecord, error) {
	raw, ok := item.Properties["datetime"].(string)
	if !ok {
		return domain.SceneRecord{}, fmt.Errorf("item has no datetime")
	}
	acquired, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.SceneRecord{}, fmt.Errorf("parse datetime %q: %w", raw, err)
	}

	scene := domain.SceneRecord{
		ID:         item.Id,
		Collection: item.Collection,
		Acquired:   acquired.UTC(),
		Assets:     bandAssets(item),
	}
	if cc, ok := item.Properties["eo:cloud_cover"].(float64); ok {
		scene.CloudCover = cc
	}
	if p, ok := item.Properties["platform"].(string); ok {
		scene.Platform = p
	}
	if err := domain.ValidateBands(scene.Bands()); err != nil {
		return domain.SceneRecord{}, err
	}
	return scene, nil
}
