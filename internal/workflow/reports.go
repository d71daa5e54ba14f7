// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cpuprobe/internal/app"
	"cpuprobe/internal/capture"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/report"
	"cpuprobe/internal/table"
)

func (rc *ReportingCommand) reportFilename(ext string) string {
	post := ""
	if rc.ReportNamePost != "" {
		post = "_" + rc.ReportNamePost
	}
	return fmt.Sprintf("%s%s.%s", app.Name, post, ext)
}

// createRawReports sweeps the source's register values into a capture file
// returns the list of files created or an error if the capture failed.
func (rc *ReportingCommand) createRawReports(appContext app.Context, src Source) ([]string, error) {
	dump := capture.Sweep(src.Querier)
	dump.Host = src.Name
	dump.Captured = time.Now().UTC().Format(time.RFC3339)
	reportPath := filepath.Join(appContext.OutputDir, rc.reportFilename("yaml"))
	if err := dump.Save(reportPath); err != nil {
		return nil, fmt.Errorf("failed to write raw register capture: %w", err)
	}
	return []string{reportPath}, nil
}

// writeReport writes the report bytes to the specified path.
func writeReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		err = fmt.Errorf("failed to write report file: %v", err)
		fmt.Fprintln(os.Stderr, err)
		slog.Error(err.Error())
		return err
	}
	return nil
}

// createReports creates the requested report(s). Without an output directory
// the single report is written to the command's output, otherwise one file is
// written per format and the list of files is returned.
func (rc *ReportingCommand) createReports(appContext app.Context, info *cpuid.ProcessorInfo, allTableValues []table.TableValues, formats []string) ([]string, error) {
	reportFilePaths := []string{}
	for _, format := range formats {
		reportBytes, err := report.Create(format, info, allTableValues)
		if err != nil {
			err = fmt.Errorf("failed to create report: %w", err)
			return nil, err
		}
		if appContext.OutputDir == "" {
			if _, err := rc.Cmd.OutOrStdout().Write(reportBytes); err != nil {
				return nil, fmt.Errorf("failed to write report: %w", err)
			}
			continue
		}
		reportPath := filepath.Join(appContext.OutputDir, rc.reportFilename(format))
		if err = writeReport(reportBytes, reportPath); err != nil {
			err = fmt.Errorf("failed to write report: %w", err)
			return nil, err
		}
		reportFilePaths = append(reportFilePaths, reportPath)
	}
	return reportFilePaths, nil
}
