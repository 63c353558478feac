package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// JSONFile reads rows from a JSON file.
type JSONFile struct {
	path string
}

func (s *JSONFile) Name() string { return s.path }
func (s *JSONFile) Path() string { return s.path }

func (s *JSONFile) Load(ctx context.Context) ([]release.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes rows from r.
//
// The input is either an array of objects or an object with a "releases"
// array:
//
//	[{"Release Date": "2022-01-03", "Group / Category": "Meeting", ...}]
//	{"releases": [...]}
//
// Numbers are kept as json.Number so spreadsheet serial dates survive
// unchanged.
func ReadJSON(r io.Reader) ([]release.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "read json")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if data[0] == '{' {
		var wrapped struct {
			Releases []release.Row `json:"releases"`
		}
		if err := dec.Decode(&wrapped); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
		return wrapped.Releases, nil
	}

	var rows []release.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	return rows, nil
}

// WriteJSON encodes rows as an indented JSON array. The output can be read
// back with [ReadJSON].
func WriteJSON(rows []release.Row, w io.Writer) error {
	if rows == nil {
		rows = []release.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes rows to the file at path.
func ExportJSON(rows []release.Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
