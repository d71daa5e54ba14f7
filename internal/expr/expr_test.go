// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package expr

import (
	"testing"

	"cpuprobe/internal/cpuid"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInfo() *cpuid.ProcessorInfo {
	table := cpuid.NewTable().
		Set(cpuid.LeafVendor, 0, cpuid.Registers{0x0D, 0x756e6547, 0x6c65746e, 0x49656e69}).
		Set(cpuid.LeafSignature, 0, cpuid.Registers{0x000806F8, 0x00100800, 1<<20 | 1<<24, 1 << 4}).
		Set(cpuid.LeafStructuredFeatures, 0, cpuid.Registers{0, 1 << 5, 0, 0}).
		Set(cpuid.LeafCacheParameters, 0, cpuid.Registers{0x21, 11<<22 | 63, 63, 0}).
		Set(cpuid.LeafCacheParameters, 1, cpuid.Registers{0x43, 15<<22 | 63, 2047, 0})
	info, err := cpuid.Introspect(table)
	if err != nil {
		panic(err)
	}
	return info
}

func TestCheck(t *testing.T) {
	info := testInfo()
	tests := []struct {
		expression string
		want       bool
	}{
		{"sse42", true},
		{"sse42 && avx2", true},
		{"avx512f", false},
		{"avx512f || avx2", true},
		{"!avx512f", true},
		{"[tsc-deadline]", true},
		{"[3dnow]", false},
		{"family == 6 && model == 143", true},
		{"stepping >= 8", true},
		{"logical_processors == 16", true},
		{"l1d_bytes == 49152", true},
		{"l2_bytes == 2097152 && largest_cache_bytes == l2_bytes", true},
		{"smallest_cache_bytes < 32768", false},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := Check(tt.expression, info)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	info := testInfo()
	tests := []struct {
		name       string
		expression string
		unknown    bool
	}{
		{"empty", "  ", false},
		{"syntax", "sse42 &&", false},
		{"unknown feature", "sse42 && warp_drive", true},
		{"not boolean", "family + 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(tt.expression, info)
			require.Error(t, err)
			assert.Equal(t, tt.unknown, errors.Is(err, ErrUnknownVariable))
		})
	}
}

func TestUnknownVariablesAreListed(t *testing.T) {
	e, err := Compile("zeta || alpha || sse2")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "sse2", "zeta"}, e.Vars())
	_, err = e.Evaluate(testInfo())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha, zeta")
}

func TestVariables(t *testing.T) {
	info := testInfo()
	params := Variables(info)
	for _, name := range info.Features.Names() {
		_, ok := params[name].(bool)
		assert.True(t, ok, name)
	}
	assert.Equal(t, float64(6), params[VarFamily])
	assert.Equal(t, float64(0x8F), params[VarModel])
	assert.Equal(t, float64(13), params[VarMaxBasicLeaf])
}
