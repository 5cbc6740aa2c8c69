package asn1go

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/asn1go/asn1go/asn1"
	"github.com/asn1go/asn1go/gen"
	"github.com/asn1go/asn1go/gen/golang"
	"github.com/asn1go/asn1go/gen/protobuf"
	"github.com/asn1go/asn1go/gen/sql"
)

// Target selects a generator backend.
type Target string

// Generator backends.
const (
	TargetGo    Target = "go"
	TargetProto Target = "proto"
	TargetSQL   Target = "sql"
)

// ParseTarget maps a CLI target name to a Target. "rust" is accepted as
// an alias for the Go backend, matching the documented invocation of
// the original tool this compiler descends from.
func ParseTarget(name string) (Target, error) {
	switch name {
	case "go", "rust":
		return TargetGo, nil
	case "proto", "protobuf":
		return TargetProto, nil
	case "sql":
		return TargetSQL, nil
	default:
		return "", fmt.Errorf("unknown target %q (expected go, proto or sql)", name)
	}
}

// GenerateConfig carries generator options, loadable from a YAML file.
type GenerateConfig struct {
	// Package overrides the Go package name of generated files.
	Package string `yaml:"package"`

	// ProtoPackage overrides the proto package of generated files.
	ProtoPackage string `yaml:"proto-package"`
}

// LoadGenerateConfig reads a YAML generator configuration file.
func LoadGenerateConfig(path string) (GenerateConfig, error) {
	var cfg GenerateConfig
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading generator config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing generator config: %w", err)
	}
	return cfg, nil
}

// Generate projects the resolved model and writes the selected
// backend's output files into outDir.
func Generate(model *asn1.Model, target Target, outDir string, cfg GenerateConfig) error {
	projected, err := gen.Project(model)
	if err != nil {
		return err
	}

	var files map[string][]byte
	switch target {
	case TargetGo:
		files, err = golang.Generate(projected, golang.Options{Package: cfg.Package})
	case TargetProto:
		files, err = protobuf.Generate(projected, protobuf.Options{Package: cfg.ProtoPackage})
	case TargetSQL:
		files, err = sql.Generate(projected)
	default:
		return fmt.Errorf("unknown target %q", target)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
