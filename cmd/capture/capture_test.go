// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package capture

import (
	"path/filepath"
	"testing"

	"cpuprobe/internal/capture"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturePath(t *testing.T) {
	tests := []struct {
		name      string
		outputDir string
		file      string
		want      string
	}{
		{"no output dir", "", "cpuid.yaml", "cpuid.yaml"},
		{"relative in output dir", "/tmp/out", "cpuid.yaml", "/tmp/out/cpuid.yaml"},
		{"absolute ignores output dir", "/tmp/out", "/data/host.yaml", "/data/host.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, capturePath(tt.outputDir, tt.file))
		})
	}
}

func TestWriteCapture(t *testing.T) {
	tbl := cpuid.NewTable().
		Set(cpuid.LeafVendor, 0, cpuid.Registers{1, 0x756e6547, 0x6c65746e, 0x49656e69}).
		Set(cpuid.LeafSignature, 0, cpuid.Registers{0x00050654, 0x00400800, 0, 0})
	path := filepath.Join(t.TempDir(), "nested", "cpuid.yaml")
	require.NoError(t, writeCapture(workflow.Source{Name: "host-a", Querier: tbl}, path))

	dump, err := capture.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "host-a", dump.Host)
	assert.Equal(t, cpuid.IntelVendorID, dump.VendorID)
	assert.NotEmpty(t, dump.Captured)
	regs, ok := dump.Table().Lookup(cpuid.LeafSignature, 0)
	require.True(t, ok)
	assert.Equal(t, uint32(0x00050654), regs.EAX())
}
