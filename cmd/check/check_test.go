// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package check

import (
	"bytes"
	"testing"

	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/expr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intelInfo decodes a minimal Intel processor with sse, sse2 and 64 logical processors.
func intelInfo(t *testing.T) *cpuid.ProcessorInfo {
	t.Helper()
	tbl := cpuid.NewTable().
		Set(cpuid.LeafVendor, 0, cpuid.Registers{1, 0x756e6547, 0x6c65746e, 0x49656e69}).
		Set(cpuid.LeafSignature, 0, cpuid.Registers{0x00050654, 0x00400800, 0, 1<<25 | 1<<26})
	info, err := cpuid.Introspect(tbl)
	require.NoError(t, err)
	return info
}

func TestEvaluate(t *testing.T) {
	info := intelInfo(t)
	tests := []struct {
		name    string
		source  string
		quiet   bool
		wantOut string
		wantErr error
	}{
		{"true", "sse && sse2", false, "true\n", nil},
		{"false", "sse && avx", false, "false\n", ErrConditionFalse},
		{"scalar", "max_basic_leaf == 1 && family == 6", false, "true\n", nil},
		{"quiet false", "avx", true, "", ErrConditionFalse},
		{"unknown variable", "sse && warp_drive", false, "", expr.ErrUnknownVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := evaluate(&out, tt.source, info, tt.quiet)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out.String())
		})
	}
}

func TestPrintVariables(t *testing.T) {
	var out bytes.Buffer
	printVariables(&out, intelInfo(t))
	text := out.String()
	assert.Contains(t, text, "sse ")
	assert.Contains(t, text, "true\n")
	assert.Regexp(t, `(?m)^family\s+6$`, text)
	assert.Regexp(t, `(?m)^max_basic_leaf\s+1$`, text)
}

func TestValidateFlags(t *testing.T) {
	savedVars := flagVars
	t.Cleanup(func() { flagVars = savedVars })

	flagVars = false
	assert.Error(t, validateFlags(Cmd, nil))
	assert.Error(t, validateFlags(Cmd, []string{"sse &&"}))
	assert.NoError(t, validateFlags(Cmd, []string{"sse && sse2"}))

	flagVars = true
	assert.NoError(t, validateFlags(Cmd, nil))
	assert.Error(t, validateFlags(Cmd, []string{"sse"}))
}
