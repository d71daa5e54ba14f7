// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"encoding/binary"
	"fmt"
)

// Register names one of the four CPUID output registers.
type Register int

const (
	EAX Register = iota
	EBX
	ECX
	EDX
)

func (r Register) String() string {
	switch r {
	case EAX:
		return "eax"
	case EBX:
		return "ebx"
	case ECX:
		return "ecx"
	case EDX:
		return "edx"
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// Registers holds the output of one CPUID query, indexed by Register.
type Registers [4]uint32

func (r Registers) EAX() uint32 { return r[EAX] }
func (r Registers) EBX() uint32 { return r[EBX] }
func (r Registers) ECX() uint32 { return r[ECX] }
func (r Registers) EDX() uint32 { return r[EDX] }

// Get returns the value of the named register.
func (r Registers) Get(reg Register) uint32 {
	return r[reg]
}

// Bytes returns the little-endian bytes of the given registers, in order.
// Vendor and brand strings are spelled this way across register sequences.
func (r Registers) Bytes(order ...Register) []byte {
	out := make([]byte, 4*len(order))
	for i, reg := range order {
		binary.LittleEndian.PutUint32(out[4*i:], r[reg])
	}
	return out
}

// Leaf identifies a CPUID input: the EAX leaf and the ECX sub-leaf.
type Leaf struct {
	Leaf    uint32
	Subleaf uint32
}

func (l Leaf) String() string {
	return fmt.Sprintf("0x%08x.%d", l.Leaf, l.Subleaf)
}

// Well-known leaf numbers.
const (
	LeafVendor             uint32 = 0x00
	LeafSignature          uint32 = 0x01
	LeafCacheDescriptors   uint32 = 0x02
	LeafCacheParameters    uint32 = 0x04
	LeafMonitor            uint32 = 0x05
	LeafStructuredFeatures uint32 = 0x07
	LeafPerfMon            uint32 = 0x0A
	LeafTopology           uint32 = 0x0B
	LeafExtendedMax        uint32 = 0x80000000
	LeafExtendedFeatures   uint32 = 0x80000001
	LeafBrand1             uint32 = 0x80000002
	LeafBrand2             uint32 = 0x80000003
	LeafBrand3             uint32 = 0x80000004
	LeafL1Cache            uint32 = 0x80000005
	LeafL2Cache            uint32 = 0x80000006
	LeafAddressSizes       uint32 = 0x80000008
	LeafAMDCacheTopology   uint32 = 0x8000001D
)
