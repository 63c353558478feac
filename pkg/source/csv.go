package source

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// CSVFile reads rows from a CSV file whose first line names the columns.
type CSVFile struct {
	path string
}

func (s *CSVFile) Name() string { return s.path }
func (s *CSVFile) Path() string { return s.path }

func (s *CSVFile) Load(ctx context.Context) ([]release.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV decodes CSV with a header row. Blank lines are skipped and short
// records leave the missing columns unset.
func ReadCSV(r io.Reader) ([]release.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []release.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv")
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, toRow(header, rec))
	}
	return rows, nil
}

// toRow maps rec onto the header columns. Unnamed columns are dropped and
// missing trailing cells stay unset.
func toRow(header, rec []string) release.Row {
	row := make(release.Row, len(header))
	for i, col := range header {
		if i < len(rec) && col != "" {
			row[col] = rec[i]
		}
	}
	return row
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
