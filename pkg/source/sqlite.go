package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// SQLite reads every row of one table of a SQLite database file.
type SQLite struct {
	path  string
	table string
}

// NewSQLite returns a source for table in the database at path. The table
// name must be a plain identifier.
func NewSQLite(path, table string) (*SQLite, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if err := errors.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return &SQLite{path: path, table: table}, nil
}

func (s *SQLite) Name() string { return "sqlite://" + s.path + "?table=" + s.table }
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Load(ctx context.Context) ([]release.Row, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", s.path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "stat %s", s.path)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open %s", s.path)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, s.table))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "query table %s", s.table)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]release.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "read columns")
	}

	var out []release.Row
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "scan row")
		}
		row := make(release.Row, len(cols))
		for i, c := range cols {
			switch v := vals[i].(type) {
			case []byte:
				row[c] = string(v)
			default:
				row[c] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "iterate rows")
	}
	return out, nil
}
