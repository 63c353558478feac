package source

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// YAMLFile reads rows from a YAML file holding a sequence of mappings.
type YAMLFile struct {
	path string
}

func (s *YAMLFile) Name() string { return s.path }
func (s *YAMLFile) Path() string { return s.path }

func (s *YAMLFile) Load(ctx context.Context) ([]release.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadYAML(f)
}

// ReadYAML decodes a sequence of mappings:
//
//	- Release Date: "2022-01-03"
//	  Group / Category: Meeting
//	  Feature Description: Major new layout
func ReadYAML(r io.Reader) ([]release.Row, error) {
	var docs []map[string]any
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
	}

	rows := make([]release.Row, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		rows = append(rows, release.Row(d))
	}
	return rows, nil
}
