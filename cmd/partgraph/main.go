// Command partgraph evaluates a part scene script, validates the resulting
// part graph and tessellates it.
//
// Usage:
//
//	partgraph [--config file.toml] [--json] [--mesh out.json] script.pg
//
// A script of "-" is read from standard input.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/partgraph/pkg/config"
	"github.com/spf13/cobra"
)

// errFailed signals a run that reported its own errors.
var errFailed = errors.New("partgraph: script failed")

type options struct {
	configPath string
	asJSON     bool
	meshPath   string
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "partgraph [flags] script",
		Short:         "Evaluate, validate and tessellate a part scene script",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args[0], stdin, stdout, stderr)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")
	f.BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	f.StringVar(&opts.meshPath, "mesh", "", "write the merged mesh as JSON to this file")
	return cmd
}

func run(opts options, script string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	log, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}

	source, err := readScript(script, stdin)
	if err != nil {
		return err
	}

	result := NewApp(cfg, log).Evaluate(string(source))

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("partgraph: encode result: %w", err)
		}
	} else {
		printSummary(stdout, result)
	}

	if result.Failed() {
		return errFailed
	}
	if opts.meshPath != "" {
		data, err := json.Marshal(result.Merged())
		if err != nil {
			return fmt.Errorf("partgraph: encode mesh: %w", err)
		}
		if err := os.WriteFile(opts.meshPath, data, 0o644); err != nil {
			return fmt.Errorf("partgraph: %w", err)
		}
	}
	return nil
}

func readScript(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("partgraph: read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("partgraph: %w", err)
	}
	return b, nil
}

func printSummary(w io.Writer, r Result) {
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s: line %d: %s\n", e.Severity, e.Line, e.Message)
		} else if e.Part != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", e.Severity, e.Part, e.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", e.Severity, e.Message)
		}
	}
	if r.Failed() {
		return
	}
	fmt.Fprintf(w, "parts: %d\n", r.Parts)
	for _, root := range r.Roots {
		fmt.Fprintf(w, "root: %s\n", root)
	}
	for _, m := range r.Meshes {
		fmt.Fprintf(w, "mesh: %s: %d triangles\n", m.PartName, len(m.Indices)/3)
	}
	for _, d := range r.Warnings {
		fmt.Fprintf(w, "%s: %s: %s\n", d.Severity, d.Part, d.Message)
	}
}

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
