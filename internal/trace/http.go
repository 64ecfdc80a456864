package trace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rpggio/tracereplay/internal/domain/event"
)

const maxArtifactBytes = 32 << 20

// HTTPSource fetches artifacts from a static file server.
type HTTPSource struct {
	base   string
	client *http.Client
	limit  int64
}

// NewHTTPSource creates a source rooted at baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing artifact base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPSource{base: baseURL, client: client, limit: maxArtifactBytes}, nil
}

// WithLimit returns a copy of the source that rejects artifacts larger than
// n bytes.
func (s *HTTPSource) WithLimit(n int64) *HTTPSource {
	c := *s
	c.limit = n
	return &c
}

func (s *HTTPSource) Manifest(ctx context.Context) ([]string, error) {
	data, err := s.fetch(ctx, ManifestFile)
	if err != nil {
		return nil, err
	}
	return DecodeManifest(data), nil
}

func (s *HTTPSource) Trace(ctx context.Context, name string) ([]event.Event, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return DecodeTrace(data)
}

func (s *HTTPSource) Report(ctx context.Context) (string, error) {
	data, err := s.fetch(ctx, ReportFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *HTTPSource) fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > s.limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrTooLarge, s.limit)
	}
	return data, nil
}
