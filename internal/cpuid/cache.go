// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// maxCacheSubleafs bounds every enumerable cache leaf. Real processors report
// fewer than ten levels and types.
const maxCacheSubleafs = 64

// CacheType is the cache type field of leaf 4 and leaf 0x8000001D.
type CacheType int

const (
	CacheTypeNone CacheType = iota
	CacheTypeData
	CacheTypeInstruction
	CacheTypeUnified
)

func (t CacheType) String() string {
	switch t {
	case CacheTypeNone:
		return "none"
	case CacheTypeData:
		return "data"
	case CacheTypeInstruction:
		return "instruction"
	case CacheTypeUnified:
		return "unified"
	}
	return fmt.Sprintf("reserved(%d)", int(t))
}

// MarshalText encodes the type by name.
func (t CacheType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CacheParameters describes one cache level and type.
type CacheParameters struct {
	Level                  int       `json:"level"`
	Type                   CacheType `json:"type"`
	Ways                   int       `json:"ways"`
	PhysicalLinePartitions int       `json:"physical_line_partitions"`
	LineSize               int       `json:"system_coherency_line_size"`
	Sets                   int       `json:"sets"`
	SizeBytes              int       `json:"size_bytes"`
	FullyAssociative       bool      `json:"fully_associative"`
	SelfInitializing       bool      `json:"self_initializing"`
	MaxSharingThreads      int       `json:"max_sharing_threads,omitempty"`
	MaxCoreIDs             int       `json:"max_core_ids,omitempty"`
	Inclusive              bool      `json:"inclusive"`
	// NoInvalidatePropagation is set when WBINVD/INVD is not guaranteed to
	// act on the lower-level caches of other threads sharing this cache.
	NoInvalidatePropagation bool `json:"wbinvd_not_propagated"`
}

// Name returns the conventional short name of the cache, such as "L1d" or
// "L2".
func (c CacheParameters) Name() string {
	switch c.Type {
	case CacheTypeData:
		return fmt.Sprintf("L%dd", c.Level)
	case CacheTypeInstruction:
		return fmt.Sprintf("L%di", c.Level)
	}
	return fmt.Sprintf("L%d", c.Level)
}

func (c CacheParameters) product() int {
	return c.Ways * c.PhysicalLinePartitions * c.LineSize * c.Sets
}

// decodeCacheParameters decodes one sub-leaf of the deterministic cache
// parameters layout shared by Intel leaf 4 and AMD leaf 0x8000001D. The
// caller must have checked that the type field is not CacheTypeNone.
func decodeCacheParameters(regs Registers) CacheParameters {
	eax, ebx, ecx, edx := regs.EAX(), regs.EBX(), regs.ECX(), regs.EDX()
	mustHold(Bits(eax, 4, 0) != uint32(CacheTypeNone), "cache sub-leaf has no cache type")
	c := CacheParameters{
		MaxCoreIDs:              int(Bits(eax, 31, 26)) + 1,
		MaxSharingThreads:       int(Bits(eax, 25, 14)) + 1,
		FullyAssociative:        Bit(eax, 9),
		SelfInitializing:        Bit(eax, 8),
		Level:                   int(Bits(eax, 7, 5)),
		Type:                    CacheType(Bits(eax, 4, 0)),
		Ways:                    int(Bits(ebx, 31, 22)) + 1,
		PhysicalLinePartitions:  int(Bits(ebx, 21, 12)) + 1,
		LineSize:                int(Bits(ebx, 11, 0)) + 1,
		Sets:                    int(ecx) + 1,
		Inclusive:               Bit(edx, 1),
		NoInvalidatePropagation: Bit(edx, 0),
	}
	c.SizeBytes = c.product()
	return c
}

// enumerateCaches queries sub-leafs 0, 1, ... of leaf until one reports
// CacheTypeNone. The records decoded before an overrun are returned along
// with ErrCacheEnumerationOverrun.
func enumerateCaches(s *session, leaf uint32) ([]CacheParameters, error) {
	var caches []CacheParameters
	for subleaf := uint32(0); subleaf < maxCacheSubleafs; subleaf++ {
		regs := s.querySub(leaf, subleaf)
		if CacheType(Bits(regs.EAX(), 4, 0)) == CacheTypeNone {
			return caches, nil
		}
		c := decodeCacheParameters(regs)
		slog.Debug("decoded cache", slog.String("cache", c.Name()), slog.Int("size_bytes", c.SizeBytes))
		caches = append(caches, c)
	}
	slog.Warn("cache enumeration did not terminate", slog.String("leaf", fmt.Sprintf("0x%08x", leaf)), slog.Int("subleafs", maxCacheSubleafs))
	return caches, errors.Wrapf(ErrCacheEnumerationOverrun, "leaf 0x%08x, %d sub-leafs", leaf, maxCacheSubleafs)
}

// CacheDescriptor is one legacy leaf 2 descriptor. For TLBs Size is the page
// size and EntriesOrLineSize the entry count; for caches they are the total
// size and the line size. Ways of 0 means fully associative.
type CacheDescriptor struct {
	Size              int  `json:"size"`
	Ways              int  `json:"ways"`
	EntriesOrLineSize int  `json:"entries_or_linesize"`
	Sectored          bool `json:"sectored"`
}

// CacheDescriptors holds the last descriptor decoded for each legacy slot.
type CacheDescriptors struct {
	TLBi CacheDescriptor `json:"tlb_instruction"`
	TLBd CacheDescriptor `json:"tlb_data"`
	L1i  CacheDescriptor `json:"l1_instruction"`
	L1d  CacheDescriptor `json:"l1_data"`
	L2   CacheDescriptor `json:"l2"`
	L3   CacheDescriptor `json:"l3"`
}

type descriptorSlot int

const (
	slotTLBi descriptorSlot = iota
	slotTLBd
	slotL1i
	slotL1d
	slotL2
	slotL3
)

type legacyDescriptor struct {
	slot descriptorSlot
	desc CacheDescriptor
}

const (
	kb = 1024
	mb = kb * kb
)

var legacyDescriptors = map[byte]legacyDescriptor{
	0x01: {slotTLBi, CacheDescriptor{4 * kb, 4, 32, false}},
	0x02: {slotTLBi, CacheDescriptor{4 * mb, 0, 2, false}},
	0x03: {slotTLBd, CacheDescriptor{4 * kb, 4, 64, false}},
	0x04: {slotTLBd, CacheDescriptor{4 * mb, 4, 8, false}},
	0x05: {slotTLBd, CacheDescriptor{4 * mb, 4, 32, false}},
	0x06: {slotL1i, CacheDescriptor{8 * kb, 4, 32, false}},
	0x08: {slotL1i, CacheDescriptor{16 * kb, 4, 32, false}},
	0x09: {slotL1i, CacheDescriptor{32 * kb, 4, 64, false}},
	0x0A: {slotL1d, CacheDescriptor{8 * kb, 2, 32, false}},
	0x0C: {slotL1d, CacheDescriptor{16 * kb, 4, 32, false}},
	0x0D: {slotL1d, CacheDescriptor{16 * kb, 4, 64, false}},
	0x21: {slotL2, CacheDescriptor{256 * kb, 8, 64, false}},
	0x22: {slotL3, CacheDescriptor{512 * kb, 4, 64, true}},
	0x23: {slotL3, CacheDescriptor{1 * mb, 8, 64, true}},
	0x25: {slotL3, CacheDescriptor{2 * mb, 8, 64, true}},
	0x29: {slotL3, CacheDescriptor{4 * mb, 8, 64, true}},
	0x2C: {slotL1d, CacheDescriptor{32 * kb, 8, 64, false}},
	0x30: {slotL1i, CacheDescriptor{32 * kb, 8, 64, false}},
	0x39: {slotL2, CacheDescriptor{128 * kb, 8, 64, true}},
	0x3A: {slotL2, CacheDescriptor{192 * kb, 6, 64, true}},
	0x3B: {slotL2, CacheDescriptor{128 * kb, 2, 64, true}},
	0x3C: {slotL2, CacheDescriptor{256 * kb, 4, 64, true}},
	0x3D: {slotL2, CacheDescriptor{384 * kb, 6, 64, true}},
	0x3E: {slotL2, CacheDescriptor{512 * kb, 4, 64, true}},
	0x41: {slotL2, CacheDescriptor{128 * kb, 4, 32, false}},
	0x42: {slotL2, CacheDescriptor{256 * kb, 4, 32, false}},
	0x43: {slotL2, CacheDescriptor{512 * kb, 4, 32, false}},
}

func (d *CacheDescriptors) slot(s descriptorSlot) *CacheDescriptor {
	switch s {
	case slotTLBi:
		return &d.TLBi
	case slotTLBd:
		return &d.TLBd
	case slotL1i:
		return &d.L1i
	case slotL1d:
		return &d.L1d
	case slotL2:
		return &d.L2
	}
	return &d.L3
}

// apply records descriptor b. Null (0x00), "no cache" (0x40) and unknown
// descriptors leave every slot unchanged.
func (d *CacheDescriptors) apply(b byte) {
	ld, ok := legacyDescriptors[b]
	if !ok {
		if b != 0x00 && b != 0x40 {
			slog.Debug("unknown cache descriptor", slog.String("descriptor", fmt.Sprintf("0x%02x", b)))
		}
		return
	}
	*d.slot(ld.slot) = ld.desc
}
