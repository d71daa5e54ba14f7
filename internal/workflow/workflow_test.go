// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cpuprobe/internal/app"
	"cpuprobe/internal/capture"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/cpus"
	"cpuprobe/internal/report"
	"cpuprobe/internal/table"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skylakeTable is a minimal Intel processor: leaf 0 and leaf 1 only.
func skylakeTable() *cpuid.Table {
	return cpuid.NewTable().
		Set(cpuid.LeafVendor, 0, cpuid.Registers{1, 0x756e6547, 0x6c65746e, 0x49656e69}).
		Set(cpuid.LeafSignature, 0, cpuid.Registers{0x00050654, 0x00400800, 0, 0})
}

func writeCapture(t *testing.T, tbl *cpuid.Table, host string) string {
	t.Helper()
	dump := capture.FromTable(tbl)
	dump.Host = host
	path := filepath.Join(t.TempDir(), "cpuid.yaml")
	require.NoError(t, dump.Save(path))
	return path
}

func setFlags(t *testing.T, input string, formats ...string) {
	t.Helper()
	savedInput, savedFormat := app.FlagInput, app.FlagFormat
	t.Cleanup(func() {
		app.FlagInput, app.FlagFormat = savedInput, savedFormat
	})
	app.FlagInput = input
	app.FlagFormat = formats
}

func newCommand(appContext app.Context, out *bytes.Buffer) *cobra.Command {
	root := &cobra.Command{Use: "cpuprobe"}
	root.SetContext(context.WithValue(context.Background(), app.Context{}, appContext))
	child := &cobra.Command{Use: "report"}
	root.AddCommand(child)
	child.SetOut(out)
	return child
}

var testTables = []table.TableDefinition{app.TableDefinitions[app.SummaryTableName]}

func TestOpenSourceFromFile(t *testing.T) {
	path := writeCapture(t, skylakeTable(), "host-a")
	src, err := OpenSource(path)
	require.NoError(t, err)
	assert.Equal(t, "host-a", src.Name)
	require.NotNil(t, src.Dump)
	assert.Equal(t, cpuid.IntelVendorID, src.Dump.VendorID)
	assert.Equal(t, uint32(0x00050654), src.Querier.Query(cpuid.LeafSignature, 0).EAX())
}

func TestOpenSourceMissingFile(t *testing.T) {
	_, err := OpenSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestIntrospect(t *testing.T) {
	info, err := Introspect(Source{Name: "test", Querier: skylakeTable()})
	require.NoError(t, err)
	assert.Equal(t, cpuid.IntelVendorID, info.VendorID)
	assert.Equal(t, uint32(85), info.Signature.DisplayModel)
	assert.Equal(t, cpus.UarchSKX, info.MicroArchitecture)
	assert.Equal(t, 64, info.ProcessorFeatures.LogicalProcessors)
}

func TestIntrospectUnknownVendor(t *testing.T) {
	tbl := cpuid.NewTable().Set(cpuid.LeafVendor, 0, cpuid.Registers{1, 0x20202020, 0x20202020, 0x20202020})
	_, err := Introspect(Source{Name: "test", Querier: tbl})
	assert.ErrorIs(t, err, cpuid.ErrUnknownVendor)
}

func TestResolveFormats(t *testing.T) {
	assert.Equal(t, report.FormatOptions, ResolveFormats([]string{report.FormatAll}))
	assert.Equal(t, []string{report.FormatJson}, ResolveFormats([]string{report.FormatJson}))
	assert.Len(t, ResolveFormats(nil), 1)
}

func TestGetAppContext(t *testing.T) {
	cmd := newCommand(app.Context{Version: "1.2.3"}, &bytes.Buffer{})
	assert.Equal(t, "1.2.3", GetAppContext(cmd).Version)
	assert.Equal(t, app.Context{}, GetAppContext(&cobra.Command{Use: "orphan"}))
}

func TestRunToStdout(t *testing.T) {
	setFlags(t, writeCapture(t, skylakeTable(), "host-a"), report.FormatJson)
	var out bytes.Buffer
	rc := ReportingCommand{Cmd: newCommand(app.Context{Version: "1.2.3"}, &out), Tables: testTables}
	require.NoError(t, rc.Run())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, cpuid.IntelVendorID, decoded["vendor_id"])
	assert.Equal(t, cpus.UarchSKX, decoded["microarchitecture"])
}

func TestRunToOutputDir(t *testing.T) {
	setFlags(t, writeCapture(t, skylakeTable(), "host-a"), report.FormatTxt, report.FormatXlsx)
	outputDir := filepath.Join(t.TempDir(), "reports")
	var out bytes.Buffer
	rc := ReportingCommand{Cmd: newCommand(app.Context{OutputDir: outputDir, Version: "1.2.3"}, &out), Tables: testTables}
	require.NoError(t, rc.Run())

	txt, err := os.ReadFile(filepath.Join(outputDir, app.Name+".txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), app.SummaryTableName)
	assert.Contains(t, string(txt), cpus.UarchSKX)
	assert.Contains(t, string(txt), "host-a")
	assert.FileExists(t, filepath.Join(outputDir, app.Name+".xlsx"))
	// replayed captures are not captured again
	assert.NoFileExists(t, filepath.Join(outputDir, app.Name+".yaml"))
	assert.Contains(t, out.String(), "Report files:")
}
