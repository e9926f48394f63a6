// Package main generates the ebaybuy Grafana dashboard and Prometheus rule
// files from code.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// mode selects what run does with the rendered artifacts.
type mode int

const (
	modeWrite mode = iota
	// modeValidate renders and validates without touching the disk.
	modeValidate
	// modeCheck fails when the files on disk differ from what would be
	// written. CI runs it to catch hand edits and forgotten regenerations.
	modeCheck
)

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	check := flag.Bool("check", false, "fail if the files in the output directory are out of date")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	m := modeWrite
	switch {
	case *validateOnly && *check:
		fmt.Fprintln(os.Stderr, "-validate and -check are mutually exclusive")
		os.Exit(2)
	case *validateOnly:
		m = modeValidate
	case *check:
		m = modeCheck
	}

	if err := run(os.Stdout, cfg, m); err != nil {
		fmt.Fprintf(os.Stderr, "dashgen: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, cfg Config, m mode) error {
	artifacts, err := render(cfg)
	if err != nil {
		return err
	}

	switch m {
	case modeValidate:
		fmt.Fprintf(out, "validation passed (%d artifacts)\n", len(artifacts))
		return nil
	case modeCheck:
		return checkArtifacts(out, cfg.OutputDir, artifacts)
	}

	for _, a := range artifacts {
		if err := a.write(cfg.OutputDir); err != nil {
			return err
		}
		fmt.Fprintf(out, "dashgen: wrote %s\n", a.Path)
	}
	return nil
}

func checkArtifacts(out io.Writer, dir string, artifacts []artifact) error {
	var stale []string
	for _, a := range artifacts {
		onDisk, err := os.ReadFile(filepath.Join(dir, a.Path))
		switch {
		case errors.Is(err, os.ErrNotExist):
			stale = append(stale, a.Path+" (missing)")
		case err != nil:
			return fmt.Errorf("reading %s: %w", a.Path, err)
		case !bytes.Equal(onDisk, a.Data):
			stale = append(stale, a.Path)
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("out of date, run dashgen: %s", strings.Join(stale, ", "))
	}
	fmt.Fprintf(out, "dashgen: %d artifacts up to date\n", len(artifacts))
	return nil
}
