// Package check is a subcommand of the root command. It evaluates a boolean
// expression over the decoded processor and sets the exit status from the result.
package check

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"cpuprobe/internal/app"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/expr"
	"cpuprobe/internal/workflow"
)

const cmdName = "check"

var examples = []string{
	fmt.Sprintf("  Require AVX-512 foundation:        $ %s %s avx512f", app.Name, cmdName),
	fmt.Sprintf("  Combine features and properties:   $ %s %s 'sse42 && (avx || avx2) && cores_per_package >= 8'", app.Name, cmdName),
	fmt.Sprintf("  Names that are not identifiers:    $ %s %s '[tsc-deadline] && l2_bytes >= 1048576'", app.Name, cmdName),
	fmt.Sprintf("  List the variables:                $ %s %s --vars", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName + " <expression>",
	Short:         "Check that the processor satisfies a feature expression, exit status 1 if not",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
}

var (
	flagQuiet bool
	flagVars  bool
)

const (
	flagQuietName = "quiet"
	flagVarsName  = "vars"
)

// ErrConditionFalse is returned when the expression evaluates to false.
var ErrConditionFalse = errors.New("expression is false")

func init() {
	Cmd.Flags().StringVar(&app.FlagInput, app.FlagInputName, "", app.InputFlag.Help)
	Cmd.Flags().BoolVar(&flagQuiet, flagQuietName, false, "print nothing, only set the exit status")
	Cmd.Flags().BoolVar(&flagVars, flagVarsName, false, "list the variables an expression can use, with their values")
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if !flagVars && len(args) == 0 {
		return workflow.FlagValidationError(cmd, "an expression is required")
	}
	if flagVars && len(args) > 0 {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s does not take an expression", flagVarsName))
	}
	if len(args) > 0 {
		if _, err := expr.Compile(args[0]); err != nil {
			return workflow.FlagValidationError(cmd, fmt.Sprintf("invalid expression: %v", err))
		}
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	src, err := workflow.OpenSource(app.FlagInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	info, err := workflow.Introspect(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	if flagVars {
		printVariables(cmd.OutOrStdout(), info)
		return nil
	}
	return evaluate(cmd.OutOrStdout(), args[0], info, flagQuiet)
}

// evaluate prints the result of source and returns ErrConditionFalse when it is false.
func evaluate(w io.Writer, source string, info *cpuid.ProcessorInfo, quiet bool) error {
	result, err := expr.Check(source, info)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("expression evaluation failed", slog.String("expression", source), slog.String("error", err.Error()))
		return err
	}
	slog.Info("expression evaluated", slog.String("expression", source), slog.Bool("result", result))
	if !quiet {
		fmt.Fprintln(w, result)
	}
	if !result {
		return ErrConditionFalse
	}
	return nil
}

func printVariables(w io.Writer, info *cpuid.ProcessorInfo) {
	vars := expr.Variables(info)
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		fmt.Fprintf(w, "%-*s %v\n", width, name, vars[name])
	}
}
