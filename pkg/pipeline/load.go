package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/releasecal/pkg/observability"
	"github.com/matzehuels/releasecal/pkg/release"
	"github.com/matzehuels/releasecal/pkg/source"
)

// OpenSource resolves opts.Source.
func OpenSource(opts Options) (source.Source, error) {
	return source.Open(opts.Source, source.Options{
		Table:          opts.Table,
		Collection:     opts.Collection,
		Seed:           opts.Seed,
		ConnectTimeout: opts.ConnectTimeout,
		Sheet:          opts.Sheet,
	})
}

// LoadRecords reads src, normalizes the rows and enriches the records.
// An empty dataset is not an error.
func LoadRecords(ctx context.Context, src source.Source, opts Options) ([]release.Record, release.Report, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, release.Report{}, err
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, src.Name())

	recs, report, err := loadRecords(ctx, src, opts)
	observability.Pipeline().OnLoadComplete(ctx, src.Name(), len(recs), time.Since(start), err)
	if err != nil {
		return nil, report, err
	}
	return recs, report, nil
}

func loadRecords(ctx context.Context, src source.Source, opts Options) ([]release.Record, release.Report, error) {
	rows, err := src.Load(ctx)
	if err != nil {
		return nil, release.Report{}, err
	}

	recs, report, err := release.Normalize(rows, release.NormalizeOptions{
		Range:   opts.Range,
		Aliases: opts.Aliases,
	})
	if err != nil {
		return nil, report, err
	}

	for _, s := range report.Skipped {
		opts.Logger.Debug("skipped row", "row", s.Index, "reason", s.Reason)
	}
	return release.EnrichAll(recs, opts.Enricher), report, nil
}
