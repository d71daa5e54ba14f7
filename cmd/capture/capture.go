// Package capture is a subcommand of the root command. It records the raw CPUID
// register values of the local processor so they can be decoded elsewhere.
package capture

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cpuprobe/internal/app"
	"cpuprobe/internal/capture"
	"cpuprobe/internal/workflow"
)

const cmdName = "capture"

var examples = []string{
	fmt.Sprintf("  Capture to the default file:      $ %s %s", app.Name, cmdName),
	fmt.Sprintf("  Capture to a named file:          $ %s %s --file host1.yaml", app.Name, cmdName),
	fmt.Sprintf("  Decode the capture on any host:   $ %s report --input host1.yaml", app.Name),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Capture the raw CPUID register values of the local processor",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var flagFile string

const (
	flagFileName    = "file"
	defaultFileName = "cpuid.yaml"
)

func init() {
	Cmd.Flags().StringVar(&flagFile, flagFileName, defaultFileName, "path of the capture file, relative paths are placed in the output directory when --output is set")
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagFile == "" {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s cannot be empty", flagFileName))
	}
	if strings.HasSuffix(flagFile, string(os.PathSeparator)) {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s must name a file, not a directory", flagFileName))
	}
	return nil
}

// capturePath resolves the capture file path against the output directory.
func capturePath(outputDir, file string) string {
	if outputDir == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(outputDir, file)
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := workflow.GetAppContext(cmd)
	src, err := workflow.OpenSource("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	path := capturePath(appContext.OutputDir, flagFile)
	if err := writeCapture(src, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		cmd.SilenceUsage = true
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Capture file:\n  %s\n", path)
	return nil
}

func writeCapture(src workflow.Source, path string) error {
	dump := capture.Sweep(src.Querier)
	dump.Host = src.Name
	dump.Captured = time.Now().UTC().Format(time.RFC3339)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil { // #nosec G301
			return fmt.Errorf("failed to create capture directory: %w", err)
		}
	}
	if err := dump.Save(path); err != nil {
		return err
	}
	slog.Info("capture written", slog.String("path", path), slog.Int("entries", len(dump.Entries)))
	return nil
}
