// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpuid decodes the x86 CPUID instruction into a normalized processor description.
package cpuid

import (
	"bytes"
	"log/slog"

	"github.com/pkg/errors"
)

// tscSamples is the number of back-to-back counter reads averaged by the
// overhead estimate.
const tscSamples = 16

// Introspect runs one introspection pass against q.
//
// The vendor leaf, the extended maximum leaf and the brand string are decoded
// for every processor. The rest of the pass is delegated to the decoder of
// the reported vendor; an unrecognized vendor yields ErrUnknownVendor and a
// ProcessorInfo holding only the vendor-neutral fields. A cache enumeration
// that does not terminate yields ErrCacheEnumerationOverrun after the rest of
// the pass has completed, with the caches decoded so far.
func Introspect(q Querier) (*ProcessorInfo, error) {
	s := newSession(q)
	info := &ProcessorInfo{
		Features: NewFeatureSet(AllFeatureTables()...),
	}

	regs := s.query(LeafVendor)
	info.MaxBasicLeaf = regs.EAX()
	info.VendorID = string(regs.Bytes(EBX, EDX, ECX))
	info.MaxExtendedLeaf = s.query(LeafExtendedMax).EAX()
	info.BrandString = brandString(s, info.MaxExtendedLeaf)

	v := vendorFor(info.VendorID)
	if v == nil {
		slog.Error("unrecognized CPU vendor", slog.String("vendor_id", info.VendorID))
		return info, errors.Wrapf(ErrUnknownVendor, "%q", info.VendorID)
	}

	v.decodeSignature(s, info)
	v.decodeFeatures(s, info)
	cacheErr := v.decodeCaches(s, info)
	v.detectTopology(s, info)

	if info.MaxExtendedLeaf >= LeafAddressSizes {
		eax := s.query(LeafAddressSizes).EAX()
		info.PhysicalAddressBits = int(Bits(eax, 7, 0))
		info.LinearAddressBits = int(Bits(eax, 15, 8))
	}

	if info.Features.Has("tsc") {
		if tsc, ok := q.(TimestampCounter); ok {
			serialized, unserialized := timestampOverhead(tsc)
			info.SerializedTSCOverhead = &serialized
			info.UnserializedTSCOverhead = &unserialized
		}
	}

	slog.Debug("introspection complete", slog.String("vendor_id", info.VendorID),
		slog.Int("queries", s.count), slog.Int("caches", len(info.CacheParameters)))
	return info, cacheErr
}

// brandString assembles the 48 byte brand string from leafs 0x80000002 to
// 0x80000004, dropping NUL padding and surrounding spaces.
func brandString(s *session, maxExtended uint32) string {
	if maxExtended < LeafBrand3 {
		return ""
	}
	var buf []byte
	for leaf := LeafBrand1; leaf <= LeafBrand3; leaf++ {
		buf = append(buf, s.query(leaf).Bytes(EAX, EBX, ECX, EDX)...)
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(bytes.TrimSpace(buf))
}

// timestampOverhead estimates the cost in cycles of one serialized and one
// unserialized counter read.
func timestampOverhead(tsc TimestampCounter) (serialized, unserialized float64) {
	var sum uint64
	for range tscSamples {
		start := tsc.SerializedTimestamp()
		sum += tsc.SerializedTimestamp() - start
	}
	serialized = float64(sum) / tscSamples
	sum = 0
	for range tscSamples {
		start := tsc.UnserializedTimestamp()
		sum += tsc.UnserializedTimestamp() - start
	}
	unserialized = float64(sum) / tscSamples
	return serialized, unserialized
}
