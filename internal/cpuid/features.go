// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"encoding/json"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// FeatureBit maps one bit of one output register to a capability name.
type FeatureBit struct {
	Register Register
	Offset   uint
	Name     string
}

// FeatureTable lists the feature bits reported by one leaf.
type FeatureTable struct {
	Leaf    uint32
	Subleaf uint32
	Bits    []FeatureBit
}

// FeatureSet maps capability names to their presence. The set of names is
// fixed when the set is created; decoding only changes values.
type FeatureSet struct {
	known mapset.Set[string]
	flags map[string]bool
}

// NewFeatureSet returns a FeatureSet holding every name in tables, all false.
func NewFeatureSet(tables ...FeatureTable) *FeatureSet {
	fs := &FeatureSet{
		known: mapset.NewThreadUnsafeSet[string](),
		flags: make(map[string]bool),
	}
	for _, table := range tables {
		for _, bit := range table.Bits {
			fs.known.Add(bit.Name)
			fs.flags[bit.Name] = false
		}
	}
	return fs
}

// Has reports whether the named feature is present. Unknown names report
// false.
func (fs *FeatureSet) Has(name string) bool {
	return fs.flags[name]
}

// Known reports whether name is one of the feature names in the set.
func (fs *FeatureSet) Known(name string) bool {
	return fs.known.Contains(name)
}

// Len returns the number of known feature names.
func (fs *FeatureSet) Len() int {
	return fs.known.Cardinality()
}

// Names returns all known feature names, sorted.
func (fs *FeatureSet) Names() []string {
	names := fs.known.ToSlice()
	sort.Strings(names)
	return names
}

// Present returns the names of the features that are present, sorted.
func (fs *FeatureSet) Present() []string {
	var names []string
	for name, ok := range fs.flags {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// KeySet returns a copy of the known names.
func (fs *FeatureSet) KeySet() mapset.Set[string] {
	return fs.known.Clone()
}

// Map returns a copy of the name to presence mapping.
func (fs *FeatureSet) Map() map[string]bool {
	out := make(map[string]bool, len(fs.flags))
	for name, ok := range fs.flags {
		out[name] = ok
	}
	return out
}

// MarshalJSON encodes the set as a JSON object of name to bool.
func (fs *FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.flags)
}

func (fs *FeatureSet) set(name string, present bool) {
	if !fs.known.Contains(name) {
		panic(fmt.Sprintf("feature %q is not in any feature table", name))
	}
	fs.flags[name] = present
}

// apply records every bit of table from regs.
func (fs *FeatureSet) apply(table FeatureTable, regs Registers) {
	for _, bit := range table.Bits {
		fs.set(bit.Name, Bit(regs.Get(bit.Register), bit.Offset))
	}
}

// AllFeatureTables returns the feature tables of every supported vendor.
func AllFeatureTables() []FeatureTable {
	var tables []FeatureTable
	for _, v := range vendors {
		tables = append(tables, v.featureTables()...)
	}
	return tables
}
