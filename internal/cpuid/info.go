// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

// ProcessorSignature is the decoded leaf 1 EAX value. Every field except the
// Display values is a slice of Raw.
type ProcessorSignature struct {
	Raw            uint32 `json:"full_bit_string"`
	Stepping       uint32 `json:"stepping_id"`
	Model          uint32 `json:"model_number"`
	Family         uint32 `json:"family_code"`
	ProcessorType  uint32 `json:"processor_type"`
	ExtendedModel  uint32 `json:"extended_model"`
	ExtendedFamily uint32 `json:"extended_family"`
	// DisplayFamily and DisplayModel combine the base and extended fields
	// using the vendor's rules.
	DisplayFamily uint32 `json:"display_family"`
	DisplayModel  uint32 `json:"display_model"`
}

// MonitorFeatures holds the MONITOR/MWAIT line size bounds from leaf 5.
type MonitorFeatures struct {
	MinLineSize int `json:"min_line_size"`
	MaxLineSize int `json:"max_line_size"`
}

// PerfMonFeatures describes the architectural performance monitoring unit
// from leaf 0x0A.
type PerfMonFeatures struct {
	Version             int `json:"version_id"`
	GPCounters          int `json:"gp_counters_per_processor"`
	GPCounterWidth      int `json:"gp_counter_bitwidth"`
	GPEventVectorLength int `json:"gp_counter_events"`
	FixedCounters       int `json:"ff_counter_count"`
	FixedCounterWidth   int `json:"ff_counter_bitwidth"`
}

// ProcessorFeatures holds the scalar capability values that do not fit in
// the FeatureSet.
type ProcessorFeatures struct {
	// MaxLogicalProcessors is the leaf 1 EBX[23:16] package maximum.
	MaxLogicalProcessors int `json:"max_logical_processors_per_package"`
	// LogicalProcessors is the topology-derived count, or MaxLogicalProcessors
	// when no topology leaf is decoded.
	LogicalProcessors int             `json:"logical_processors_per_package"`
	ThreadsPerCore    int             `json:"threads_per_core"`
	CoresPerPackage   int             `json:"cores_per_package"`
	Monitor           MonitorFeatures `json:"monitor"`
	PerfMon           PerfMonFeatures `json:"perfmon"`
}

// ProcessorInfo is the result of one introspection pass.
type ProcessorInfo struct {
	VendorID          string             `json:"vendor_id"`
	BrandString       string             `json:"model_name"`
	MicroArchitecture string             `json:"microarchitecture,omitempty"`
	MaxBasicLeaf      uint32             `json:"max_basic_eax"`
	MaxExtendedLeaf   uint32             `json:"max_ext_eax"`
	Signature         ProcessorSignature `json:"processor_signature"`
	Features          *FeatureSet        `json:"features"`
	ProcessorFeatures ProcessorFeatures  `json:"processor_features"`
	CacheParameters   []CacheParameters  `json:"caches"`
	CacheDescriptors  CacheDescriptors   `json:"cache_descriptors"`
	// CacheLineSize and CacheSizeBytes are the L2 summary from Intel leaf
	// 0x80000006.
	CacheLineSize       int `json:"cache_line_size"`
	CacheSizeBytes      int `json:"cache_size_bytes"`
	PhysicalAddressBits int `json:"max_physical_address_size"`
	LinearAddressBits   int `json:"max_linear_address_size"`
	// The TSC overhead estimates are nil unless the tsc feature is present
	// and the querier can read the counter.
	SerializedTSCOverhead   *float64 `json:"rdtsc_serialized_overhead_cycles,omitempty"`
	UnserializedTSCOverhead *float64 `json:"rdtsc_unserialized_overhead_cycles,omitempty"`
}

// SmallestCacheSize returns the size in bytes of the smallest data or unified
// cache, or 0 if none was decoded.
func (p *ProcessorInfo) SmallestCacheSize() int {
	smallest := 0
	for _, c := range p.CacheParameters {
		if c.Type == CacheTypeInstruction || c.SizeBytes == 0 {
			continue
		}
		if smallest == 0 || c.SizeBytes < smallest {
			smallest = c.SizeBytes
		}
	}
	return smallest
}

// LargestCacheSize returns the size in bytes of the largest decoded cache, or
// 0 if none was decoded.
func (p *ProcessorInfo) LargestCacheSize() int {
	largest := 0
	for _, c := range p.CacheParameters {
		if c.SizeBytes > largest {
			largest = c.SizeBytes
		}
	}
	return largest
}
