package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/releasecal/pkg/errors"
)

func newTestHTTP(t *testing.T, url string) *HTTP {
	t.Helper()
	s, err := NewHTTP(url, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	s.initialDelay = 10 * time.Millisecond
	return s
}

func TestHTTPLoadFormats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/releases.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Release Date,Group / Category,Feature Description\n2022-01-03,Meeting,New layout\n"))
	})
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`[{"Release Date": "2022-01-03", "Group / Category": "Chat"}]`))
	})
	mux.HandleFunc("/feed.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("- Release Date: \"2022-01-03\"\n  Group / Category: Phone\n"))
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("?"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		path     string
		category string
		wantErr  errors.Code
	}{
		{"/releases.csv", "Meeting", ""},
		{"/export", "Chat", ""},
		{"/feed.yaml", "Phone", ""},
		{"/blob", "", errors.ErrCodeUnsupported},
		{"/missing.csv", "", errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rows, err := newTestHTTP(t, srv.URL+tt.path).Load(context.Background())
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if len(rows) != 1 || rows[0]["Group / Category"] != tt.category {
				t.Errorf("rows = %v", rows)
			}
		})
	}
}

func TestHTTPRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		_, _ = w.Write([]byte("Release Date,Group / Category\n2022-01-03,Meeting\n"))
	}))
	defer srv.Close()

	rows, err := newTestHTTP(t, srv.URL+"/releases.csv").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(rows) != 1 || calls.Load() != 3 {
		t.Errorf("rows = %d, calls = %d", len(rows), calls.Load())
	}
}

func TestHTTPClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestHTTP(t, srv.URL+"/releases.csv").Load(context.Background())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("Load() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
