// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

// implemented in native_amd64.s
func cpuidex(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)
func rdtsc() uint64
func rdtscSerialized() uint64

// Native issues CPUID on the processor the calling goroutine is running on.
// The Go scheduler may move the goroutine between queries; callers that need
// per-CPU data must pin the thread themselves.
type Native struct{}

// NewNative returns a Querier backed by the CPUID instruction.
func NewNative() (*Native, error) {
	return &Native{}, nil
}

// Query implements Querier.
func (*Native) Query(leaf, subleaf uint32) Registers {
	a, b, c, d := cpuidex(leaf, subleaf)
	return Registers{a, b, c, d}
}

// SerializedTimestamp implements TimestampCounter.
func (*Native) SerializedTimestamp() uint64 {
	return rdtscSerialized()
}

// UnserializedTimestamp implements TimestampCounter.
func (*Native) UnserializedTimestamp() uint64 {
	return rdtsc()
}
