// Package source reads raw release rows from files, workbooks, databases,
// HTTP and the built-in sample generator.
//
// Sources only read. Every source returns []release.Row keyed by the
// columns of the underlying data ("Release Date", "Group / Category",
// "Feature Description", ...); turning rows into records is the job of
// release.Normalize.
//
// # URIs
//
// [Open] picks a source from a URI:
//
//	releases.csv                          CSV with a header row
//	releases.json                         JSON array of objects
//	releases.yaml, releases.yml           YAML sequence of mappings
//	releases.xlsx                         first sheet (or Options.Sheet) of a workbook
//	releases.db, sqlite://path?table=t    SQLite table (default "releases")
//	mongodb://host/db?collection=c        MongoDB collection (default "releases")
//	https://host/releases.csv             CSV, JSON, YAML or XLSX over HTTP(S)
//	sample:, sample:42                    synthetic data, optionally seeded
package source

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// Source loads raw rows.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string
	// Load reads every row.
	Load(ctx context.Context) ([]release.Row, error)
}

// Watchable is implemented by sources backed by a local file.
type Watchable interface {
	Path() string
}

// Default table and collection names.
const (
	DefaultTable      = "releases"
	DefaultCollection = "releases"
)

// DefaultConnectTimeout bounds retries when connecting to a database or
// HTTP server.
const DefaultConnectTimeout = 30 * time.Second

// Options tunes sources opened with Open. Values given in the URI win.
type Options struct {
	Table          string
	Collection     string
	Seed           uint64
	ConnectTimeout time.Duration
	// Sheet selects the workbook sheet; empty means the first one.
	Sheet          string
}

func (o *Options) setDefaults() {
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
}

// Open resolves uri to a source. It does not touch the file system or the
// network; errors surface on Load.
func Open(uri string, opts Options) (Source, error) {
	opts.setDefaults()
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidSource, "source cannot be empty")
	}

	switch {
	case uri == "sample" || strings.HasPrefix(uri, "sample:"):
		seed := opts.Seed
		if s := strings.TrimPrefix(strings.TrimPrefix(uri, "sample"), ":"); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "invalid sample seed %q", s)
			}
			seed = n
		}
		return &Sample{Seed: seed}, nil

	case strings.HasPrefix(uri, "sqlite://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse %s", uri)
		}
		table := opts.Table
		if t := u.Query().Get("table"); t != "" {
			table = t
		}
		return NewSQLite(u.Host+u.Path, table)

	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return NewMongo(uri, opts.Collection, opts.ConnectTimeout)

	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewHTTP(uri, opts.ConnectTimeout)
	}

	if err := errors.ValidatePath(uri); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(uri)) {
	case ".csv":
		return &CSVFile{path: uri}, nil
	case ".json":
		return &JSONFile{path: uri}, nil
	case ".yaml", ".yml":
		return &YAMLFile{path: uri}, nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(uri, opts.Table)
	case ".xlsx", ".xlsm":
		return &XLSXFile{path: uri, sheet: opts.Sheet}, nil
	case ".xls":
		return nil, errors.New(errors.ErrCodeUnsupported,
			"legacy .xls workbooks are not supported; save %s as .xlsx or CSV", filepath.Base(uri))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown source type for %q", uri)
}

// openFile opens path, mapping a missing file to ErrCodeFileNotFound.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open %s", path)
	}
	return f, nil
}
