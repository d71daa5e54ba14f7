// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "encoding/binary"

// vendorRegisters builds a leaf 0 result for the given vendor identifier.
func vendorRegisters(maxLeaf uint32, id string) Registers {
	b := []byte(id)
	return Registers{
		maxLeaf,
		binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint32(b[8:12]),
		binary.LittleEndian.Uint32(b[4:8]),
	}
}

// setBrand stores brand in leafs 0x80000002 to 0x80000004, NUL padded.
func setBrand(t *Table, brand string) {
	b := make([]byte, 48)
	copy(b, brand)
	for i := range 3 {
		var regs Registers
		for r := range 4 {
			off := 16*i + 4*r
			regs[r] = binary.LittleEndian.Uint32(b[off : off+4])
		}
		t.Set(LeafBrand1+uint32(i), 0, regs)
	}
}

const intelBrand = "Intel(R) Xeon(R) Gold 6154 CPU @ 3.00GHz"

// intelTable describes a two-way SMT, eight core Intel processor with split
// 32KB L1 caches and a 1MB L2.
func intelTable() *Table {
	t := NewTable().
		Set(LeafVendor, 0, vendorRegisters(0x16, IntelVendorID)).
		Set(LeafSignature, 0, Registers{
			0x00050654,
			0x00400800,
			1<<0 | 1<<3 | 1<<21 | 1<<28,
			1<<4 | 1<<25 | 1<<26 | 1<<28,
		}).
		Set(LeafCacheDescriptors, 0, Registers{0x00000001, 0, 0, 0x002C3000}).
		Set(LeafCacheParameters, 0, Registers{0x21, 7<<22 | 63, 63, 0}).
		Set(LeafCacheParameters, 1, Registers{0x22, 7<<22 | 63, 63, 0}).
		Set(LeafCacheParameters, 2, Registers{0x43, 15<<22 | 63, 1023, 1<<1}).
		Set(LeafMonitor, 0, Registers{64, 64, 0, 0}).
		Set(LeafStructuredFeatures, 0, Registers{0, 1<<5 | 1<<16, 0, 0}).
		Set(LeafPerfMon, 0, Registers{0x07300804, 0, 0, 0x603}).
		Set(LeafTopology, 0, Registers{1, 2, 0x100, 0}).
		Set(LeafTopology, 1, Registers{4, 16, 0x201, 0}).
		Set(LeafExtendedMax, 0, Registers{LeafAddressSizes, 0, 0, 0}).
		Set(LeafExtendedFeatures, 0, Registers{0, 0, 1 << 0, 1<<27 | 1<<29}).
		Set(LeafL2Cache, 0, Registers{0, 0, 0x04006040, 0}).
		Set(LeafAddressSizes, 0, Registers{0x302E, 0, 0, 0})
	setBrand(t, intelBrand)
	return t
}

// amdTable describes an AMD processor without topology extensions, so caches
// come from the fixed-layout leafs 0x80000005 and 0x80000006.
func amdTable() *Table {
	t := NewTable().
		Set(LeafVendor, 0, vendorRegisters(0x0D, AMDVendorID)).
		Set(LeafSignature, 0, Registers{0x00800F12, 0x00100800, 1<<0 | 1<<23, 1<<4 | 1<<25 | 1<<28}).
		Set(LeafExtendedMax, 0, Registers{LeafAddressSizes, 0, 0, 0}).
		Set(LeafExtendedFeatures, 0, Registers{0, 0, 1<<2 | 1<<6, 1<<27 | 1<<29}).
		Set(LeafL1Cache, 0, Registers{0, 0, 0x20080140, 0x40040140}).
		Set(LeafL2Cache, 0, Registers{0, 0, 0x02006040, 0x0040C040}).
		Set(LeafAddressSizes, 0, Registers{0x3030, 0, 7, 0})
	setBrand(t, "AMD EPYC 7601 32-Core Processor")
	return t
}
