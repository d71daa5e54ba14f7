// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

// Vendor identifier strings reported by leaf 0.
const (
	IntelVendorID = "GenuineIntel"
	AMDVendorID   = "AuthenticAMD"
)

// vendorDecoder is one vendor's leaf layouts and decode sequence. The
// orchestrator selects exactly one implementation per pass and calls the
// methods in declaration order; later methods may depend on fields written by
// earlier ones.
type vendorDecoder interface {
	vendorID() string
	featureTables() []FeatureTable
	decodeSignature(s *session, info *ProcessorInfo)
	decodeFeatures(s *session, info *ProcessorInfo)
	decodeCaches(s *session, info *ProcessorInfo) error
	detectTopology(s *session, info *ProcessorInfo)
}

var vendors = []vendorDecoder{intel{}, amd{}}

func vendorFor(id string) vendorDecoder {
	for _, v := range vendors {
		if v.vendorID() == id {
			return v
		}
	}
	return nil
}
