// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	tests := []struct {
		name   string
		v      uint32
		hi, lo uint
		want   uint32
	}{
		{"stepping", 0x00050654, 3, 0, 0x4},
		{"model", 0x00050654, 7, 4, 0x5},
		{"family", 0x00050654, 11, 8, 0x6},
		{"extended model", 0x00050654, 19, 16, 0x5},
		{"extended family", 0x00800F12, 27, 20, 0x08},
		{"single bit", 0x80000000, 31, 31, 1},
		{"full width", 0xDEADBEEF, 31, 0, 0xDEADBEEF},
		{"l3 size units", 0x0040C040, 31, 18, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bits(tt.v, tt.hi, tt.lo))
		})
	}
}

func TestBitsReassembleValue(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x00050654, 0xFFFFFFFF, 0x80000008, 0x12345678} {
		var got uint32
		for i := uint(0); i < 32; i++ {
			got |= Bits(v, i, i) << i
		}
		assert.Equal(t, v, got)
	}
}

func TestBitsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { Bits(1, 32, 0) })
	assert.Panics(t, func() { Bits(1, 3, 4) })
	assert.Panics(t, func() { Bit(1, 32) })
}

func TestBit(t *testing.T) {
	assert.True(t, Bit(1<<21, 21))
	assert.False(t, Bit(1<<21, 20))
}
