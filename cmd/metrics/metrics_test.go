package metrics

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"cpuprobe/internal/cpuid"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfo(t *testing.T) *cpuid.ProcessorInfo {
	t.Helper()
	tbl := cpuid.NewTable().
		Set(cpuid.LeafVendor, 0, cpuid.Registers{1, 0x756e6547, 0x6c65746e, 0x49656e69}).
		Set(cpuid.LeafSignature, 0, cpuid.Registers{0x00050654, 0x00400800, 0, 1 << 25}).
		Set(cpuid.LeafExtendedMax, 0, cpuid.Registers{cpuid.LeafAddressSizes, 0, 0, 0}).
		Set(cpuid.LeafAddressSizes, 0, cpuid.Registers{0x302e, 0, 0, 0})
	info, err := cpuid.Introspect(tbl)
	require.NoError(t, err)
	info.MicroArchitecture = "SKX"
	info.CacheParameters = []cpuid.CacheParameters{
		{Level: 1, Type: cpuid.CacheTypeData, SizeBytes: 32768},
		{Level: 2, Type: cpuid.CacheTypeUnified, SizeBytes: 1048576},
	}
	return info
}

func TestUpdate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := newProcessorMetrics(registry)
	require.NoError(t, err)
	m.update(testInfo(t))

	var buf bytes.Buffer
	require.NoError(t, writeMetricsText(&buf, registry))
	out := buf.String()

	tests := []string{
		`cpuprobe_feature{name="sse"} 1`,
		`cpuprobe_feature{name="avx"} 0`,
		`cpuprobe_cache_size_bytes{level="1",type="data"} 32768`,
		`cpuprobe_cache_size_bytes{level="2",type="unified"} 1.048576e+06`,
		`cpuprobe_address_bits{kind="physical"} 46`,
		`cpuprobe_address_bits{kind="linear"} 48`,
		`microarchitecture="SKX"`,
		`vendor_id="GenuineIntel"`,
	}
	for _, want := range tests {
		t.Run(want, func(t *testing.T) {
			assert.Contains(t, out, want)
		})
	}
}

func TestUpdateReplacesCaches(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := newProcessorMetrics(registry)
	require.NoError(t, err)
	info := testInfo(t)
	m.update(info)
	info.CacheParameters = info.CacheParameters[:1]
	m.update(info)

	var buf bytes.Buffer
	require.NoError(t, writeMetricsText(&buf, registry))
	assert.NotContains(t, buf.String(), `type="unified"`)
}

func TestDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := newProcessorMetrics(registry)
	require.NoError(t, err)
	_, err = newProcessorMetrics(registry)
	assert.Error(t, err)
}

func TestPrometheusServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := newProcessorMetrics(registry)
	require.NoError(t, err)
	m.update(testInfo(t))

	server, addr, err := startPrometheusServer("127.0.0.1:0", registry)
	require.NoError(t, err)
	defer server.Close()

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cpuprobe_logical_processors 64`)
}

func TestStartPrometheusServerBadAddress(t *testing.T) {
	_, _, err := startPrometheusServer("not-an-address", prometheus.NewRegistry())
	assert.Error(t, err)
}
