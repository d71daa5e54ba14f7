// Package report is a subcommand of the root command. It generates a report of the decoded processor.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cpuprobe/internal/app"
	"cpuprobe/internal/report"
	"cpuprobe/internal/table"
	"cpuprobe/internal/workflow"
)

const cmdName = "report"

var examples = []string{
	fmt.Sprintf("  Report on the local processor:        $ %s %s", app.Name, cmdName),
	fmt.Sprintf("  Caches and topology only, as json:    $ %s %s --cache --topology --format json", app.Name, cmdName),
	fmt.Sprintf("  All formats to a directory:           $ %s --output ./out %s --format all", app.Name, cmdName),
	fmt.Sprintf("  Report on a captured processor:       $ %s %s --input cpuid.yaml", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Generate a report of the processor's identity, features, caches and topology",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

// flag vars
var (
	flagAll bool
	// categories
	flagSummary   bool
	flagProcessor bool
	flagFeatures  bool
	flagCache     bool
	flagTopology  bool
	flagPerfmon   bool
	flagTiming    bool
)

// flag names
const (
	flagAllName = "all"
	// categories
	flagSummaryName   = "summary"
	flagProcessorName = "processor"
	flagFeaturesName  = "features"
	flagCacheName     = "cache"
	flagTopologyName  = "topology"
	flagPerfmonName   = "perfmon"
	flagTimingName    = "timing"
)

// categories maps flag names to tables that will be included in report
var categories = []app.Category{
	{FlagName: flagSummaryName, FlagVar: &flagSummary, Help: "Processor Summary", Tables: []table.TableDefinition{app.TableDefinitions[app.SummaryTableName]}},
	{FlagName: flagProcessorName, FlagVar: &flagProcessor, Help: "Identification and Signature", Tables: []table.TableDefinition{tableDefinitions[ProcessorTableName]}},
	{FlagName: flagFeaturesName, FlagVar: &flagFeatures, Help: "Instruction Set Features", Tables: []table.TableDefinition{tableDefinitions[FeaturesTableName]}},
	{FlagName: flagCacheName, FlagVar: &flagCache, Help: "Cache Parameters", Tables: []table.TableDefinition{tableDefinitions[CacheTableName], tableDefinitions[LegacyCacheTableName]}},
	{FlagName: flagTopologyName, FlagVar: &flagTopology, Help: "Processor Topology", Tables: []table.TableDefinition{tableDefinitions[TopologyTableName]}},
	{FlagName: flagPerfmonName, FlagVar: &flagPerfmon, Help: "Performance Monitoring", Tables: []table.TableDefinition{tableDefinitions[PerfmonTableName]}},
	{FlagName: flagTimingName, FlagVar: &flagTiming, Help: "Timestamp Counter Overhead", Tables: []table.TableDefinition{tableDefinitions[TimingTableName]}},
}

func init() {
	// set up category flags
	for _, cat := range categories {
		Cmd.Flags().BoolVar(cat.FlagVar, cat.FlagName, cat.DefaultValue, cat.Help)
	}
	// set up other flags
	Cmd.Flags().StringVar(&app.FlagInput, app.FlagInputName, "", "")
	Cmd.Flags().BoolVar(&flagAll, flagAllName, true, "")
	Cmd.Flags().StringSliceVar(&app.FlagFormat, app.FlagFormatName, []string{}, "")

	Cmd.SetUsageFunc(usageFunc)
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		flagDefault := ""
		if pf.DefValue != "" {
			flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
		}
		cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
	})
	return nil
}

func getFlagGroups() []app.FlagGroup {
	var groups []app.FlagGroup
	flags := []app.Flag{
		{
			Name: flagAllName,
			Help: "report all categories",
		},
	}
	for _, cat := range categories {
		flags = append(flags, app.Flag{
			Name: cat.FlagName,
			Help: cat.Help,
		})
	}
	groups = append(groups, app.FlagGroup{
		GroupName: "Categories",
		Flags:     flags,
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Other Options",
		Flags: []app.Flag{
			{
				Name: app.FlagFormatName,
				Help: fmt.Sprintf("choose output format(s) from: %s, txt on a terminal and json otherwise if not set", strings.Join(append([]string{report.FormatAll}, report.FormatOptions...), ", ")),
			},
		},
	})
	groups = append(groups, app.FlagGroup{
		GroupName: "Advanced Options",
		Flags:     []app.Flag{app.InputFlag},
	})
	return groups
}

func validateFlags(cmd *cobra.Command, args []string) error {
	// clear flagAll if any categories are selected
	if flagAll {
		for _, cat := range categories {
			if cat.FlagVar != nil && *cat.FlagVar {
				flagAll = false
				break
			}
		}
	}
	// validate format options
	formatOptions := append([]string{report.FormatAll}, report.FormatOptions...)
	for _, format := range app.FlagFormat {
		if !slices.Contains(formatOptions, format) {
			return workflow.FlagValidationError(cmd, fmt.Sprintf("format options are: %s", strings.Join(formatOptions, ", ")))
		}
	}
	// without an output directory the report goes to stdout, so only one text format is possible
	if workflow.GetAppContext(cmd).OutputDir == "" {
		formats := workflow.ResolveFormats(app.FlagFormat)
		if len(formats) > 1 {
			return workflow.FlagValidationError(cmd, fmt.Sprintf("multiple formats require --%s", app.FlagOutputDirName))
		}
		if formats[0] == report.FormatXlsx {
			return workflow.FlagValidationError(cmd, fmt.Sprintf("the %s format requires --%s", report.FormatXlsx, app.FlagOutputDirName))
		}
	}
	if app.FlagInput != "" {
		if _, err := os.Stat(app.FlagInput); err != nil {
			return workflow.FlagValidationError(cmd, fmt.Sprintf("input file %s: %v", app.FlagInput, err))
		}
	}
	return nil
}

// selectedTables returns the tables of the selected categories, in category order.
func selectedTables() []table.TableDefinition {
	var tables []table.TableDefinition
	for _, cat := range categories {
		if flagAll || (cat.FlagVar != nil && *cat.FlagVar) {
			tables = append(tables, cat.Tables...)
		}
	}
	return tables
}

func runCmd(cmd *cobra.Command, args []string) error {
	reportingCommand := workflow.ReportingCommand{
		Cmd:    cmd,
		Tables: selectedTables(),
	}
	return reportingCommand.Run()
}
