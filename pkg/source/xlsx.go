package source

import (
	"context"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// XLSXFile reads rows from one sheet of an Excel workbook whose first row
// names the columns.
type XLSXFile struct {
	path  string
	sheet string
}

func (s *XLSXFile) Name() string { return s.path }
func (s *XLSXFile) Path() string { return s.path }

func (s *XLSXFile) Load(ctx context.Context) ([]release.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadXLSX(f, s.sheet)
}

// ReadXLSX decodes a workbook and returns the rows of sheet, or of the first
// sheet when sheet is empty. Cells are read unformatted, so date cells come
// back as serial numbers that release.ParseDate understands.
func ReadXLSX(r io.Reader, sheet string) ([]release.Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer func() { _ = wb.Close() }()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidSource, "workbook has no sheet %q", sheet)
	}

	cells, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read sheet %s", sheet)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	header := cells[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []release.Row
	for _, rec := range cells[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, toRow(header, rec))
	}
	return rows, nil
}
