// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "fmt"

// Bits returns bits hi through lo (inclusive, bit 0 is least significant) of v,
// shifted down so that bit lo lands on bit 0.
//
// Register fields in the decoder tables are fixed by the hardware
// documentation, so an index outside the 32-bit register is a table bug and
// panics rather than being truncated.
func Bits(v uint32, hi, lo uint) uint32 {
	if hi >= 32 || lo > hi {
		panic(fmt.Sprintf("invalid bit range [%d:%d]", hi, lo))
	}
	width := hi - lo + 1
	if width == 32 {
		return v
	}
	return (v >> lo) & (1<<width - 1)
}

// Bit reports whether bit n of v is set.
func Bit(v uint32, n uint) bool {
	if n >= 32 {
		panic(fmt.Sprintf("invalid bit index %d", n))
	}
	return v&(1<<n) != 0
}
