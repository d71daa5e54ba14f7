// Package workflow implements the common flow/logic for commands that decode
// the processor (report, check, metrics). It handles choosing the register
// source, decoding, and report generation.
package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cpuprobe/internal/app"
	"cpuprobe/internal/report"
	"cpuprobe/internal/table"
	"cpuprobe/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ReportingCommand represents a command that generates reports from the decoded processor.
type ReportingCommand struct {
	Cmd            *cobra.Command
	ReportNamePost string
	Tables         []table.TableDefinition
}

// GetAppContext returns the application context stored on the root command,
// or an empty context when the command was not started through the root.
func GetAppContext(cmd *cobra.Command) app.Context {
	root := cmd.Root()
	if root.Context() == nil {
		return app.Context{}
	}
	if appContext, ok := root.Context().Value(app.Context{}).(app.Context); ok {
		return appContext
	}
	return app.Context{}
}

// DefaultFormat is the report format used when none is requested: text for a
// terminal, json otherwise.
func DefaultFormat() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return report.FormatTxt
	}
	return report.FormatJson
}

// Run is the common flow/logic for the 'report' command.
func (rc *ReportingCommand) Run() error {
	appContext := GetAppContext(rc.Cmd)
	outputDir := appContext.OutputDir
	if outputDir != "" {
		err := util.CreateDirectoryIfNotExists(outputDir, 0755) // #nosec G301
		if err != nil {
			err = fmt.Errorf("failed to create output directory: %w", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			slog.Error(err.Error())
			rc.Cmd.SilenceUsage = true
			return err
		}
	}
	src, err := OpenSource(app.FlagInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		rc.Cmd.SilenceUsage = true
		return err
	}
	info, err := Introspect(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		rc.Cmd.SilenceUsage = true
		return err
	}
	allTableValues := table.ProcessTables(rc.Tables, info)
	// special case - add tableValues for the application version
	allTableValues = append(allTableValues, table.TableValues{
		TableDefinition: table.TableDefinition{
			Name: app.TableNameCpuprobe,
		},
		Fields: []table.Field{
			{Name: "Version", Values: []string{appContext.Version}},
			{Name: "Args", Values: []string{strings.Join(os.Args, " ")}},
			{Name: "Source", Values: []string{src.Name}},
		},
	})
	formats := ResolveFormats(app.FlagFormat)
	// save the raw register values next to the reports so the run can be replayed
	var rawReports []string
	if outputDir != "" && src.Dump == nil {
		rawReports, err = rc.createRawReports(appContext, src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			slog.Error(err.Error())
			rc.Cmd.SilenceUsage = true
			return err
		}
	}
	reportFilePaths, err := rc.createReports(appContext, info, allTableValues, formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		rc.Cmd.SilenceUsage = true
		return err
	}
	reportFilePaths = append(reportFilePaths, rawReports...)
	// if we are debugging, create a tgz archive with the raw reports, formatted reports, and log file
	if appContext.Debug && outputDir != "" {
		archiveFiles := slices.Clone(reportFilePaths)
		if len(archiveFiles) > 0 {
			if appContext.LogFilePath != "" {
				archiveFiles = append(archiveFiles, appContext.LogFilePath)
			}
			err := util.CreateFlatTGZ(archiveFiles, filepath.Join(outputDir, app.Name+"_"+appContext.Timestamp+".tgz"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				slog.Error(err.Error())
				rc.Cmd.SilenceUsage = true
				return err
			}
		}
	}
	if len(reportFilePaths) > 0 {
		fmt.Fprintln(rc.Cmd.OutOrStdout(), "Report files:")
	}
	for _, reportFilePath := range reportFilePaths {
		fmt.Fprintf(rc.Cmd.OutOrStdout(), "  %s\n", reportFilePath)
	}
	return nil
}

// ResolveFormats expands "all" and applies the default format when none was requested.
func ResolveFormats(requested []string) []string {
	if slices.Contains(requested, report.FormatAll) {
		return report.FormatOptions
	}
	if len(requested) == 0 {
		return []string{DefaultFormat()}
	}
	return requested
}

// FlagValidationError is used to report an error with a flag
func FlagValidationError(cmd *cobra.Command, msg string) error {
	err := fmt.Errorf("%s", msg)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintf(os.Stderr, "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	return err
}
