package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/matzehuels/releasecal/pkg/buildinfo"
	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// maxBodySize caps a downloaded dataset.
const maxBodySize = 64 << 20

// HTTP downloads a CSV, JSON, YAML or XLSX dataset. The format comes from the
// URL's extension, falling back to the response Content-Type.
type HTTP struct {
	url     string
	client  *http.Client
	timeout time.Duration
	// initialDelay is the first retry delay; it doubles on every retry.
	initialDelay time.Duration
}

// NewHTTP returns a source for rawURL. Transient failures (network errors,
// 5xx, 429) are retried until timeout elapses.
func NewHTTP(rawURL string, timeout time.Duration) (*HTTP, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidSource, "invalid url %q", rawURL)
	}
	return &HTTP{
		url:          rawURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		timeout:      timeout,
		initialDelay: 500 * time.Millisecond,
	}, nil
}

func (s *HTTP) Name() string { return s.url }

func (s *HTTP) Load(ctx context.Context) ([]release.Row, error) {
	var (
		body        []byte
		contentType string
	)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.initialDelay
	bo.MaxElapsedTime = s.timeout
	err := backoff.Retry(func() error {
		var err error
		body, contentType, err = s.fetch(ctx)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", s.url)
	}

	switch s.format(contentType) {
	case "csv":
		return ReadCSV(bytes.NewReader(body))
	case "json":
		return ReadJSON(bytes.NewReader(body))
	case "yaml":
		return ReadYAML(bytes.NewReader(body))
	case "xlsx":
		return ReadXLSX(bytes.NewReader(body), "")
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "cannot tell the format of %s (content type %q)", s.url, contentType)
}

// fetch performs one GET. Errors that retrying cannot fix are wrapped in
// backoff.Permanent.
func (s *HTTP) fetch(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, "", backoff.Permanent(errors.Wrap(errors.ErrCodeInvalidSource, err, "request %s", s.url))
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", backoff.Permanent(errors.New(errors.ErrCodeNotFound, "%s: not found", s.url))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, "", backoff.Permanent(errors.New(errors.ErrCodeNetwork, "%s: status %d", s.url, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, "", err
	}
	if len(body) > maxBodySize {
		return nil, "", backoff.Permanent(errors.New(errors.ErrCodeInvalidSource, "%s is larger than %d bytes", s.url, maxBodySize))
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (s *HTTP) format(contentType string) string {
	if u, err := url.Parse(s.url); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".csv":
			return "csv"
		case ".json":
			return "json"
		case ".yaml", ".yml":
			return "yaml"
		case ".xlsx":
			return "xlsx"
		}
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "text/csv", "application/csv":
		return "csv"
	case "application/json":
		return "json"
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return "yaml"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	}
	return ""
}
