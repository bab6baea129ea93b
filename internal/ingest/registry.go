package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source parses one kind of input file into records.
type Source interface {
	CanParse(filename string) bool
	Parse(data []byte, opt Options) (*Result, error)
}

var registry []Source

// Register adds a source to the registry. Earlier registrations win.
func Register(s Source) {
	registry = append(registry, s)
}

// ParseFile reads path and parses it with the first source that accepts its name.
func ParseFile(path string, opt Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if opt.Source == "" {
		opt.Source = filepath.Base(path)
	}
	return ParseNamed(path, data, opt)
}

// ParseNamed parses data using name only to pick a source. Unknown names are treated as delimited text.
func ParseNamed(name string, data []byte, opt Options) (*Result, error) {
	for _, s := range registry {
		if s.CanParse(name) {
			return s.Parse(data, opt)
		}
	}
	return Parse(data, opt)
}

type delimitedSource struct{}

func (delimitedSource) CanParse(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func (delimitedSource) Parse(data []byte, opt Options) (*Result, error) { return Parse(data, opt) }

type xlsxSource struct{}

func (xlsxSource) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

func (xlsxSource) Parse(data []byte, opt Options) (*Result, error) { return ParseXLSX(data, opt) }

func init() {
	Register(delimitedSource{})
	Register(xlsxSource{})
}
