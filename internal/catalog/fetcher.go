// Package catalog retrieves course availability snapshots from the published
// catalog data releases.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"seat-notifier/internal/logger"
	"seat-notifier/internal/models"
)

const defaultTimeout = 30 * time.Second

// Fetcher lists the available catalog releases and downloads the latest one.
// It never retries; a failed fetch is left for the next scan.
type Fetcher struct {
	client     *http.Client
	listingURL string
	dataURL    string
}

// NewFetcher creates a Fetcher. dataURL is a format string that receives the
// release path, e.g. ".../master/%s/courses.json", and must contain exactly
// one %s verb.
func NewFetcher(listingURL, dataURL string, timeout time.Duration) (*Fetcher, error) {
	if strings.Count(dataURL, "%") != 1 || !strings.Contains(dataURL, "%s") {
		return nil, fmt.Errorf("data URL %q must contain a single %%s for the release path", dataURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		listingURL: listingURL,
		dataURL:    dataURL,
	}, nil
}

// Fetch returns the snapshot of the last release in the listing.
func (f *Fetcher) Fetch(ctx context.Context) (*models.Snapshot, error) {
	release, err := f.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(f.dataURL, release)
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, &FetchError{Stage: StageData, URL: url, Err: err}
	}

	departments, err := parseDepartments(body)
	if err != nil {
		return nil, &FetchError{Stage: StageParse, URL: url, Err: err}
	}

	logger.Debugf("Fetched catalog release %s with %d departments", release, len(departments))
	return &models.Snapshot{
		Release:     release,
		FetchedAt:   time.Now(),
		Departments: departments,
	}, nil
}

// LatestRelease returns the path of the last entry in the release listing.
// The listing is ordered oldest first, so the last entry is the current term.
func (f *Fetcher) LatestRelease(ctx context.Context) (string, error) {
	body, err := f.get(ctx, f.listingURL)
	if err != nil {
		return "", &FetchError{Stage: StageListing, URL: f.listingURL, Err: err}
	}

	if !gjson.ValidBytes(body) {
		return "", &FetchError{Stage: StageListing, URL: f.listingURL, Err: errors.New("invalid JSON")}
	}

	listing := gjson.ParseBytes(body)
	if !listing.IsArray() {
		return "", &FetchError{Stage: StageListing, URL: f.listingURL, Err: errors.New("listing is not an array")}
	}

	entries := listing.Array()
	if len(entries) == 0 {
		return "", &FetchError{Stage: StageListing, URL: f.listingURL, Err: errors.New("no releases listed")}
	}

	// Entries are either plain path strings or objects with a "path" field.
	var path string
	switch last := entries[len(entries)-1]; {
	case last.Type == gjson.String:
		path = last.Str
	case last.IsObject():
		path = last.Get("path").String()
	}
	if path == "" {
		return "", &FetchError{Stage: StageListing, URL: f.listingURL, Err: errors.New("latest release has no path")}
	}
	return path, nil
}

// parseDepartments accepts either a bare array of departments or an object
// carrying them under "departments".
func parseDepartments(body []byte) ([]models.Department, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON")
	}

	raw := gjson.ParseBytes(body)
	if raw.IsObject() {
		raw = raw.Get("departments")
		if !raw.Exists() {
			return nil, errors.New(`missing "departments"`)
		}
	}
	if !raw.IsArray() {
		return nil, errors.New("departments is not an array")
	}

	var departments []models.Department
	if err := json.Unmarshal([]byte(raw.Raw), &departments); err != nil {
		return nil, fmt.Errorf("failed to decode departments: %w", err)
	}
	return departments, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}
