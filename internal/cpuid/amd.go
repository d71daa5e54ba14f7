// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "log/slog"

// AMD layouts follow the AMD64 Architecture Programmer's Manual volume 3,
// appendix E.

var amdBasicFeatures = FeatureTable{Leaf: LeafSignature, Bits: []FeatureBit{
	{EDX, 3, "pse"},
	{EDX, 4, "tsc"},
	{EDX, 5, "msr"},
	{EDX, 8, "cx8"},
	{EDX, 15, "cmov"},
	{EDX, 16, "pat"},
	{EDX, 17, "pse36"},
	{EDX, 19, "clflush"},
	{EDX, 23, "mmx"},
	{EDX, 25, "sse"},
	{EDX, 26, "sse2"},
	{EDX, 28, "htt"},

	{ECX, 0, "sse3"},
	{ECX, 3, "monitor"},
	{ECX, 9, "ssse3"},
	{ECX, 13, "cx16"},
	{ECX, 19, "sse41"},
	{ECX, 23, "popcnt"},
	{ECX, 31, "raz"},
}}

var amdExtendedFeatures = FeatureTable{Leaf: LeafExtendedFeatures, Bits: []FeatureBit{
	{ECX, 2, "svm"},
	{ECX, 5, "abm"},
	{ECX, 6, "sse4a"},
	{ECX, 7, "misalignsse"},
	{ECX, 8, "3dnowprefetch"},
	{ECX, 10, "ibs"},
	{ECX, 22, "topoext"},

	{EDX, 3, "pse"},
	{EDX, 5, "msr"},
	{EDX, 8, "cx8"},
	{EDX, 15, "cmov"},
	{EDX, 22, "mmxext"},
	{EDX, 27, "rdtscp"},
	{EDX, 29, "x86_64"},
	{EDX, 30, "3dnowext"},
	{EDX, 31, "3dnow"},
}}

// amdAssociativity maps the L2/L3 associativity codes of leaf 0x80000006 to
// way counts. Codes not listed are the way count itself; 0xF is fully
// associative.
var amdAssociativity = map[uint32]int{
	0x6: 8,
	0x8: 16,
	0xA: 32,
	0xB: 48,
	0xC: 64,
	0xD: 96,
	0xE: 128,
}

const amdFullyAssociative = 0xF

type amd struct{}

func (amd) vendorID() string { return AMDVendorID }

func (amd) featureTables() []FeatureTable {
	return []FeatureTable{amdBasicFeatures, amdExtendedFeatures}
}

func (amd) decodeSignature(s *session, info *ProcessorInfo) {
	info.Signature = amdSignature(s.query(LeafSignature).EAX())
}

// amdSignature applies the extended fields only when the base family is 0xF.
func amdSignature(eax uint32) ProcessorSignature {
	sig := ProcessorSignature{
		Raw:            eax,
		Stepping:       Bits(eax, 3, 0),
		Model:          Bits(eax, 7, 4),
		Family:         Bits(eax, 11, 8),
		ProcessorType:  Bits(eax, 13, 12),
		ExtendedModel:  Bits(eax, 19, 16),
		ExtendedFamily: Bits(eax, 27, 20),
	}
	sig.DisplayFamily, sig.DisplayModel = sig.Family, sig.Model
	if sig.Family == 0xF {
		sig.DisplayFamily += sig.ExtendedFamily
		sig.DisplayModel += sig.ExtendedModel << 4
	}
	return sig
}

func (amd) decodeFeatures(s *session, info *ProcessorInfo) {
	regs := s.query(LeafSignature)
	info.Features.apply(amdBasicFeatures, regs)
	if info.Features.Has("htt") {
		info.ProcessorFeatures.MaxLogicalProcessors = int(Bits(regs.EBX(), 23, 16))
	} else {
		info.ProcessorFeatures.MaxLogicalProcessors = 1
	}

	if info.MaxExtendedLeaf >= LeafExtendedFeatures {
		info.Features.apply(amdExtendedFeatures, s.query(LeafExtendedFeatures))
	}
	if info.Features.Has("monitor") {
		amdMonitor(s, info)
	}
}

func amdMonitor(s *session, info *ProcessorInfo) {
	mustHold(info.Features.Has("monitor"), "leaf 5 requires the monitor feature")
	regs := s.query(LeafMonitor)
	info.ProcessorFeatures.Monitor.MinLineSize = int(Bits(regs.EAX(), 15, 0))
	info.ProcessorFeatures.Monitor.MaxLineSize = int(Bits(regs.EBX(), 15, 0))
}

func (amd) decodeCaches(s *session, info *ProcessorInfo) error {
	if info.Features.Has("topoext") && info.MaxExtendedLeaf >= LeafAMDCacheTopology {
		caches, err := enumerateCaches(s, LeafAMDCacheTopology)
		info.CacheParameters = append(info.CacheParameters, caches...)
		return err
	}
	if info.MaxExtendedLeaf >= LeafL1Cache {
		regs := s.query(LeafL1Cache)
		info.CacheParameters = append(info.CacheParameters,
			amdL1Cache(regs.EDX(), CacheTypeInstruction),
			amdL1Cache(regs.ECX(), CacheTypeData))
	}
	if info.MaxExtendedLeaf >= LeafL2Cache {
		regs := s.query(LeafL2Cache)
		info.CacheParameters = append(info.CacheParameters, amdL2Cache(regs.ECX()), amdL3Cache(regs.EDX()))
	}
	return nil
}

// amdL1Cache decodes the L1 layout of leaf 0x80000005: size in KB, ways
// (0xFF is fully associative), lines per tag and line size.
func amdL1Cache(reg uint32, t CacheType) CacheParameters {
	ways := int(Bits(reg, 23, 16))
	return amdCache(1, t, int(Bits(reg, 31, 24))*kb, ways, int(Bits(reg, 7, 0)), ways == 0xFF)
}

func amdL2Cache(ecx uint32) CacheParameters {
	ways, fully := amdWays(Bits(ecx, 15, 12))
	return amdCache(2, CacheTypeUnified, int(Bits(ecx, 31, 16))*kb, ways, int(Bits(ecx, 7, 0)), fully)
}

// amdL3Cache decodes EDX of leaf 0x80000006, whose size field counts 512KB
// units.
func amdL3Cache(edx uint32) CacheParameters {
	ways, fully := amdWays(Bits(edx, 15, 12))
	return amdCache(3, CacheTypeUnified, int(Bits(edx, 31, 18))*512*kb, ways, int(Bits(edx, 7, 0)), fully)
}

func amdWays(code uint32) (ways int, fully bool) {
	if code == amdFullyAssociative {
		return 0, true
	}
	if w, ok := amdAssociativity[code]; ok {
		return w, false
	}
	return int(code), false
}

// amdCache derives the set count from the reported size. A fully associative
// cache is a single set holding every line.
func amdCache(level int, t CacheType, size, ways, lineSize int, fully bool) CacheParameters {
	c := CacheParameters{
		Level:                  level,
		Type:                   t,
		LineSize:               lineSize,
		PhysicalLinePartitions: 1,
		FullyAssociative:       fully,
		Ways:                   ways,
	}
	if fully && lineSize > 0 {
		c.Ways = size / lineSize
	}
	if c.Ways > 0 && lineSize > 0 {
		c.Sets = size / (c.Ways * lineSize)
	}
	c.SizeBytes = c.product()
	return c
}

func (amd) detectTopology(s *session, info *ProcessorInfo) {
	pf := &info.ProcessorFeatures
	pf.LogicalProcessors = pf.MaxLogicalProcessors
	if info.MaxExtendedLeaf < LeafAddressSizes {
		slog.Debug("core count leaf not supported", slog.Any("max_ext_leaf", info.MaxExtendedLeaf))
		return
	}
	cores := int(Bits(s.query(LeafAddressSizes).ECX(), 7, 0)) + 1
	pf.CoresPerPackage = cores
	if pf.LogicalProcessors >= cores {
		pf.ThreadsPerCore = pf.LogicalProcessors / cores
	}
}
