// Command asn1rs compiles ASN.1 schema files and generates data types
// with a UPER codec for the selected backend.
//
// Usage:
//
//	asn1rs -t go <outdir> <input.asn1>...
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/asn1go/asn1go"
	"github.com/asn1go/asn1go/asn1"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		targetName string
		configPath string
		verbosity  int
	)

	cmd := &cobra.Command{
		Use:   "asn1rs -t <target> <outdir> <input.asn1>...",
		Short: "ASN.1 compiler with a UPER runtime",
		Long: `asn1rs compiles ASN.1 module definitions into generated data types
driven by a bit-exact UPER codec. Targets: go (default), proto, sql.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := asn1go.ParseTarget(targetName)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			outDir, inputs := args[0], args[1:]

			var cfg asn1go.GenerateConfig
			if configPath != "" {
				cfg, err = asn1go.LoadGenerateConfig(configPath)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					return err
				}
			}

			var opts []asn1go.CompileOption
			if logger := buildLogger(verbosity); logger != nil {
				opts = append(opts, asn1go.WithLogger(logger))
			}

			sources := make([]asn1go.Source, len(inputs))
			for i, input := range inputs {
				sources[i] = asn1go.File(input)
			}

			model, err := asn1go.Compile(asn1go.Multi(sources...), opts...)
			if err != nil {
				reportError(err)
				return err
			}

			if err := asn1go.Generate(model, target, outDir, cfg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetName, "target", "t", "go", "generator backend (go, proto, sql)")
	cmd.Flags().StringVar(&configPath, "config", "", "generator configuration file (YAML)")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "enable debug logging (-vv for trace)")

	return cmd
}

// buildLogger maps -v/-vv to a stderr slog handler.
func buildLogger(verbosity int) *slog.Logger {
	if verbosity <= 0 {
		return nil
	}
	level := slog.LevelDebug
	if verbosity > 1 {
		level = asn1go.LevelTrace
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// reportError prints compilation diagnostics as
// `<path>:<line>:<col>: <message>` lines.
func reportError(err error) {
	var sourceErr *asn1.SourceError
	if errors.As(err, &sourceErr) {
		for _, d := range sourceErr.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
