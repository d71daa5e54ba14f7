// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeQuery(t *testing.T) {
	n, err := NewNative()
	require.NoError(t, err)
	regs := n.Query(LeafVendor, 0)
	assert.NotZero(t, regs.EAX())
	assert.Len(t, regs.Bytes(EBX, EDX, ECX), 12)

	assert.NotZero(t, n.UnserializedTimestamp())
	assert.NotZero(t, n.SerializedTimestamp())
}
