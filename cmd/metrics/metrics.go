// Package metrics is a subcommand of the root command. It exports the decoded
// processor as Prometheus metrics.
package metrics

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"cpuprobe/internal/app"
	"cpuprobe/internal/workflow"
)

const cmdName = "metrics"

var examples = []string{
	fmt.Sprintf("  Serve metrics on the default port:   $ %s %s", app.Name, cmdName),
	fmt.Sprintf("  Serve metrics on another address:    $ %s %s --listen 127.0.0.1:9100", app.Name, cmdName),
	fmt.Sprintf("  Print the metrics once:              $ %s %s --once", app.Name, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Export processor features, caches and topology as Prometheus metrics",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var (
	flagListen string
	flagOnce   bool
)

const (
	flagListenName = "listen"
	flagOnceName   = "once"
)

const shutdownTimeout = 5 * time.Second

func init() {
	Cmd.Flags().StringVar(&flagListen, flagListenName, ":9876", "address of the /metrics endpoint")
	Cmd.Flags().BoolVar(&flagOnce, flagOnceName, false, "print the metrics in the Prometheus text format and exit")
	Cmd.Flags().StringVar(&app.FlagInput, app.FlagInputName, "", app.InputFlag.Help)
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if flagOnce && cmd.Flags().Lookup(flagListenName).Changed {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s and --%s are mutually exclusive", flagOnceName, flagListenName))
	}
	if !flagOnce && flagListen == "" {
		return workflow.FlagValidationError(cmd, fmt.Sprintf("--%s cannot be empty", flagListenName))
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
	registry := prometheus.NewRegistry()
	m, err := newProcessorMetrics(registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	m.update(info)
	if flagOnce {
		return writeMetricsText(cmd.OutOrStdout(), registry)
	}
	// catch signals to allow for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	server, addr, err := startPrometheusServer(flagListen, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics for %s at http://%s/metrics, press Ctrl-C to stop\n", src.Name, addr)
	<-ctx.Done()
	slog.Info("received signal, stopping metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down metrics server", slog.String("error", err.Error()))
		return err
	}
	return nil
}
