package asn1go

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions lists the file extensions treated as ASN.1 schema
// sources when scanning directories.
var DefaultExtensions = []string{".asn", ".asn1"}

// NamedSource is one schema text with the name used in diagnostics:
// a file path, or a caller-chosen label for in-memory sources.
type NamedSource struct {
	Name    string
	Content []byte
}

// Source provides ASN.1 schema texts to Compile.
type Source interface {
	Load() ([]NamedSource, error)
}

// File returns a Source reading a single schema file.
func File(path string) Source {
	return fileSource(path)
}

type fileSource string

func (s fileSource) Load() ([]NamedSource, error) {
	content, err := os.ReadFile(string(s))
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return []NamedSource{{Name: string(s), Content: content}}, nil
}

// Dir returns a Source reading every schema file directly inside a
// directory, in name order.
func Dir(path string) Source {
	return dirSource(path)
}

type dirSource string

func (s dirSource) Load() ([]NamedSource, error) {
	entries, err := os.ReadDir(string(s))
	if err != nil {
		return nil, fmt.Errorf("scanning schema directory: %w", err)
	}
	var sources []NamedSource
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !slices.Contains(DefaultExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		path := filepath.Join(string(s), entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		sources = append(sources, NamedSource{Name: path, Content: content})
	}
	return sources, nil
}

// String returns an in-memory Source with the given diagnostic name.
func String(name, text string) Source {
	return stringSource{name: name, text: text}
}

type stringSource struct {
	name string
	text string
}

func (s stringSource) Load() ([]NamedSource, error) {
	return []NamedSource{{Name: s.name, Content: []byte(s.text)}}, nil
}

// Multi combines several sources in order.
func Multi(sources ...Source) Source {
	return multiSource(sources)
}

type multiSource []Source

func (s multiSource) Load() ([]NamedSource, error) {
	var all []NamedSource
	for _, source := range s {
		loaded, err := source.Load()
		if err != nil {
			return nil, err
		}
		all = append(all, loaded...)
	}
	return all, nil
}
