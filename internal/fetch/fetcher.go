// Package fetch retrieves raw title XML from the govinfo bulk-data layout.
// Failures are classified so the orchestrator can tell retryable network
// conditions apart from terminal ones.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public eCFR bulk-data root.
const DefaultBaseURL = "https://www.govinfo.gov/bulkdata/ECFR"

// MaxTitle is the highest CFR title number.
const MaxTitle = 50

// Failure classification sentinels. Use errors.Is to branch.
var (
	ErrTransient = errors.New("transient fetch failure")
	ErrPermanent = errors.New("permanent fetch failure")
)

// Fetcher downloads title documents over HTTP.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
}

// New returns a fetcher against baseURL (DefaultBaseURL when empty).
func New(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Fetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the bulk-data location of one title's XML.
func (f *Fetcher) URL(title int) string {
	return fmt.Sprintf("%s/title-%d/ECFR-title%d.xml", f.BaseURL, title, title)
}

// Fetch retrieves the raw bytes for one title. Network errors and 5xx
// responses wrap ErrTransient; 4xx responses wrap ErrPermanent.
func (f *Fetcher) Fetch(ctx context.Context, title int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(title), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for title %d: %v", ErrPermanent, title, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: title %d: %v", ErrTransient, title, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: title %d: status %d", ErrTransient, title, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: title %d: status %d", ErrPermanent, title, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: title %d: read body: %v", ErrTransient, title, err)
	}
	return body, nil
}
