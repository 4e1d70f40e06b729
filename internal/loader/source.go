// Package loader reads evaluation datasets from files, HTTP endpoints or
// SQLite and turns them into analysis stores.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// Source produces the raw person records of one dataset.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]types.PersonRecord, error)
}

// Format is the encoding of a dataset document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name or URL path.
func FormatFor(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a dataset document. A document without any records is
// valid and yields an empty slice.
func Decode(data []byte, format Format) ([]types.PersonRecord, error) {
	var records []types.PersonRecord
	if len(bytes.TrimSpace(data)) == 0 {
		return []types.PersonRecord{}, nil
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode yaml dataset: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode json dataset: %w", err)
		}
	}

	if records == nil {
		records = []types.PersonRecord{}
	}
	return records, nil
}

// FileSource reads a JSON or YAML document from disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Load(ctx context.Context) ([]types.PersonRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Decode(data, FormatFor(s.path))
}

// MultiSource loads several sources concurrently and concatenates their
// records in declaration order. Any failure fails the whole load.
type MultiSource struct {
	sources []Source
}

func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (s *MultiSource) Name() string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return strings.Join(names, ",")
}

func (s *MultiSource) Load(ctx context.Context) ([]types.PersonRecord, error) {
	parts := make([][]types.PersonRecord, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			records, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			parts[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.PersonRecord
	for _, part := range parts {
		out = append(out, part...)
	}
	if out == nil {
		out = []types.PersonRecord{}
	}
	return out, nil
}
