// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import "log/slog"

// Intel layouts follow the Intel SDM volume 2A CPUID reference and
// Application Note 485.

var intelBasicFeatures = FeatureTable{Leaf: LeafSignature, Bits: []FeatureBit{
	{EDX, 3, "pse"},
	{EDX, 4, "tsc"},
	{EDX, 5, "msr"},
	{EDX, 8, "cx8"},
	{EDX, 15, "cmov"},
	{EDX, 16, "pat"},
	{EDX, 17, "pse36"},
	{EDX, 19, "clflush"},
	{EDX, 21, "ds"},
	{EDX, 23, "mmx"},
	{EDX, 25, "sse"},
	{EDX, 26, "sse2"},
	{EDX, 27, "ss"},
	{EDX, 28, "htt"},

	{ECX, 0, "sse3"},
	{ECX, 1, "pclmuldq"},
	{ECX, 2, "dtes64"},
	{ECX, 3, "monitor"},
	{ECX, 4, "ds_cpl"},
	{ECX, 5, "vmx"},
	{ECX, 6, "smx"},
	{ECX, 7, "eist"},
	{ECX, 9, "ssse3"},
	{ECX, 12, "fma"},
	{ECX, 13, "cx16"},
	{ECX, 15, "pdcm"},
	{ECX, 19, "sse41"},
	{ECX, 20, "sse42"},
	{ECX, 21, "x2apic"},
	{ECX, 22, "movbe"},
	{ECX, 23, "popcnt"},
	{ECX, 24, "tsc-deadline"},
	{ECX, 25, "aes"},
	{ECX, 28, "avx"},
	{ECX, 29, "f16c"},
	{ECX, 30, "rdrand"},
}}

var intelExtendedFeatures = FeatureTable{Leaf: LeafExtendedFeatures, Bits: []FeatureBit{
	{EDX, 11, "syscall"},
	{EDX, 20, "xd"},
	{EDX, 26, "pdpe1gb"},
	{EDX, 27, "rdtscp"},
	{EDX, 29, "x86_64"},

	{ECX, 0, "lahf"},
	{ECX, 5, "lzcnt"},
	{ECX, 8, "prefetchw"},
}}

var intelStructuredFeatures = FeatureTable{Leaf: LeafStructuredFeatures, Subleaf: 0, Bits: []FeatureBit{
	{EBX, 0, "fsgsbase"},
	{EBX, 3, "bmi1"},
	{EBX, 4, "hle"},
	{EBX, 5, "avx2"},
	{EBX, 7, "smep"},
	{EBX, 8, "bmi2"},
	{EBX, 9, "erms"},
	{EBX, 10, "invpcid"},
	{EBX, 11, "rtm"},
	{EBX, 16, "avx512f"},
	{EBX, 17, "avx512dq"},
	{EBX, 18, "rdseed"},
	{EBX, 19, "adx"},
	{EBX, 20, "smap"},
	{EBX, 23, "clflushopt"},
	{EBX, 24, "clwb"},
	{EBX, 28, "avx512cd"},
	{EBX, 29, "sha"},
	{EBX, 30, "avx512bw"},
	{EBX, 31, "avx512vl"},

	{ECX, 1, "avx512vbmi"},
	{ECX, 5, "waitpkg"},
	{ECX, 8, "gfni"},
	{ECX, 9, "vaes"},
	{ECX, 10, "vpclmulqdq"},
	{ECX, 11, "avx512vnni"},
	{ECX, 25, "cldemote"},
	{ECX, 27, "movdiri"},
	{ECX, 28, "movdir64b"},

	{EDX, 14, "serialize"},
	{EDX, 16, "tsxldtrk"},
	{EDX, 22, "amx-bf16"},
	{EDX, 24, "amx-tile"},
	{EDX, 25, "amx-int8"},
}}

type intel struct{}

func (intel) vendorID() string { return IntelVendorID }

func (intel) featureTables() []FeatureTable {
	return []FeatureTable{intelBasicFeatures, intelExtendedFeatures, intelStructuredFeatures}
}

func (intel) decodeSignature(s *session, info *ProcessorInfo) {
	info.Signature = intelSignature(s.query(LeafSignature).EAX())
}

func intelSignature(eax uint32) ProcessorSignature {
	sig := ProcessorSignature{
		Raw:            eax,
		Stepping:       Bits(eax, 3, 0),
		Model:          Bits(eax, 7, 4),
		Family:         Bits(eax, 11, 8),
		ProcessorType:  Bits(eax, 13, 12),
		ExtendedModel:  Bits(eax, 19, 16),
		ExtendedFamily: Bits(eax, 27, 20),
	}
	sig.DisplayFamily = sig.Family
	if sig.Family == 0xF {
		sig.DisplayFamily += sig.ExtendedFamily
	}
	sig.DisplayModel = sig.Model
	if sig.Family == 0x6 || sig.Family == 0xF {
		sig.DisplayModel += sig.ExtendedModel << 4
	}
	return sig
}

func (intel) decodeFeatures(s *session, info *ProcessorInfo) {
	regs := s.query(LeafSignature)
	info.Features.apply(intelBasicFeatures, regs)
	info.ProcessorFeatures.MaxLogicalProcessors = int(Bits(regs.EBX(), 23, 16))

	if info.MaxExtendedLeaf >= LeafExtendedFeatures {
		info.Features.apply(intelExtendedFeatures, s.query(LeafExtendedFeatures))
	}
	if info.Features.Has("monitor") {
		intelMonitor(s, info)
	}
	if info.MaxBasicLeaf >= LeafStructuredFeatures {
		info.Features.apply(intelStructuredFeatures, s.querySub(LeafStructuredFeatures, 0))
	}
	if info.MaxBasicLeaf >= LeafPerfMon {
		intelPerfMon(s, info)
	} else {
		slog.Debug("performance monitoring leaf not supported", slog.Any("max_basic_leaf", info.MaxBasicLeaf))
	}
}

// intelMonitor decodes the MONITOR/MWAIT leaf. Leaf 5 is only meaningful once
// leaf 1 has reported MONITOR support.
func intelMonitor(s *session, info *ProcessorInfo) {
	mustHold(info.Features.Has("monitor"), "leaf 5 requires the monitor feature")
	regs := s.query(LeafMonitor)
	info.ProcessorFeatures.Monitor = MonitorFeatures{
		MinLineSize: int(Bits(regs.EAX(), 15, 0)),
		MaxLineSize: int(Bits(regs.EBX(), 15, 0)),
	}
}

func intelPerfMon(s *session, info *ProcessorInfo) {
	mustHold(info.MaxBasicLeaf >= LeafPerfMon, "leaf 0x0A is above the maximum basic leaf 0x%x", info.MaxBasicLeaf)
	regs := s.query(LeafPerfMon)
	pm := PerfMonFeatures{
		Version:             int(Bits(regs.EAX(), 7, 0)),
		GPCounters:          int(Bits(regs.EAX(), 15, 8)),
		GPCounterWidth:      int(Bits(regs.EAX(), 23, 16)),
		GPEventVectorLength: int(Bits(regs.EAX(), 31, 24)),
	}
	// fixed-function counters are enumerated from version 2 on
	if pm.Version > 1 {
		pm.FixedCounters = int(Bits(regs.EDX(), 4, 0))
		pm.FixedCounterWidth = int(Bits(regs.EDX(), 12, 5))
	}
	info.ProcessorFeatures.PerfMon = pm
}

func (intel) decodeCaches(s *session, info *ProcessorInfo) error {
	info.CacheDescriptors = CacheDescriptors{}
	if info.MaxBasicLeaf >= LeafCacheDescriptors {
		intelCacheDescriptors(s, &info.CacheDescriptors)
	}
	if info.MaxExtendedLeaf >= LeafL2Cache {
		ecx := s.query(LeafL2Cache).ECX()
		info.CacheLineSize = int(Bits(ecx, 7, 0))
		info.CacheSizeBytes = int(Bits(ecx, 31, 16)) * 1024
	}
	if info.MaxBasicLeaf < LeafCacheParameters {
		slog.Debug("deterministic cache parameters leaf not supported")
		return nil
	}
	caches, err := enumerateCaches(s, LeafCacheParameters)
	info.CacheParameters = append(info.CacheParameters, caches...)
	return err
}

// intelCacheDescriptors decodes the one-byte descriptors of leaf 2. The low
// byte of EAX is the number of times leaf 2 must be queried; a register with
// bit 31 set holds no descriptors.
func intelCacheDescriptors(s *session, out *CacheDescriptors) {
	regs := s.query(LeafCacheDescriptors)
	rounds := int(Bits(regs.EAX(), 7, 0))
	for round := 0; ; {
		for r := EAX; r <= EDX; r++ {
			v := regs.Get(r)
			if Bit(v, 31) {
				continue
			}
			for b := uint(0); b < 4; b++ {
				if r == EAX && b == 0 {
					continue
				}
				out.apply(byte(Bits(v, 8*b+7, 8*b)))
			}
		}
		round++
		if round >= rounds || round >= maxCacheSubleafs {
			break
		}
		regs = s.query(LeafCacheDescriptors)
	}
}

func (intel) detectTopology(s *session, info *ProcessorInfo) {
	if info.Features.Has("x2apic") && info.MaxBasicLeaf >= LeafTopology {
		intelExtendedTopology(s, info)
		return
	}
	slog.Debug("extended topology leaf unavailable, using leaf 1 logical processor count")
	info.ProcessorFeatures.LogicalProcessors = info.ProcessorFeatures.MaxLogicalProcessors
}

// intelExtendedTopology reads the SMT (sub-leaf 0) and core (sub-leaf 1)
// levels of leaf 0x0B.
func intelExtendedTopology(s *session, info *ProcessorInfo) {
	mustHold(info.Features.Has("x2apic"), "leaf 0x0B requires the x2apic feature")
	mustHold(info.MaxBasicLeaf >= LeafTopology, "leaf 0x0B is above the maximum basic leaf 0x%x", info.MaxBasicLeaf)
	threadsPerCore := int(Bits(s.querySub(LeafTopology, 0).EBX(), 15, 0))
	logical := int(Bits(s.querySub(LeafTopology, 1).EBX(), 15, 0))
	pf := &info.ProcessorFeatures
	if logical == 0 {
		slog.Warn("extended topology leaf reported no logical processors, using leaf 1 count")
		logical = pf.MaxLogicalProcessors
	}
	pf.LogicalProcessors = logical
	pf.ThreadsPerCore = threadsPerCore
	if threadsPerCore > 0 {
		pf.CoresPerPackage = logical / threadsPerCore
	}
}
