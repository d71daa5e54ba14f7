// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package capture records raw CPUID register values to a YAML file and
// replays them through a cpuid.Table.
package capture

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cpuprobe/internal/cpuid"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// FormatVersion is written to every dump and checked on load.
const FormatVersion = 1

// sweep bounds. Leaf maximums above these are treated as corrupt.
const (
	maxBasicLeafs    = 0x100
	maxExtendedLeafs = 0x100
	maxSubleafs      = 64
)

// Hex is a register value that reads and writes as a hexadecimal string.
type Hex uint32

// MarshalYAML implements yaml.Marshaler.
func (h Hex) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("0x%08x", uint32(h)), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Both hexadecimal strings and
// plain integers are accepted.
func (h *Hex) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid register value %q", s)
	}
	*h = Hex(v)
	return nil
}

// Entry is the result of one CPUID query.
type Entry struct {
	Leaf    Hex `yaml:"leaf"`
	Subleaf Hex `yaml:"subleaf"`
	EAX     Hex `yaml:"eax"`
	EBX     Hex `yaml:"ebx"`
	ECX     Hex `yaml:"ecx"`
	EDX     Hex `yaml:"edx"`
}

// Registers returns the entry's output registers.
func (e Entry) Registers() cpuid.Registers {
	return cpuid.Registers{uint32(e.EAX), uint32(e.EBX), uint32(e.ECX), uint32(e.EDX)}
}

// Dump is a set of CPUID results captured from one processor.
type Dump struct {
	Version  int     `yaml:"version"`
	Host     string  `yaml:"host,omitempty"`
	Captured string  `yaml:"captured,omitempty"`
	VendorID string  `yaml:"vendor_id"`
	Entries  []Entry `yaml:"entries"`
}

// Sweep queries every basic and extended leaf reported by q, following the
// sub-leafs of the enumerable leafs, and returns the results.
func Sweep(q cpuid.Querier) *Dump {
	d := &Dump{Version: FormatVersion}
	vendor := q.Query(cpuid.LeafVendor, 0)
	d.VendorID = string(vendor.Bytes(cpuid.EBX, cpuid.EDX, cpuid.ECX))
	d.sweepRange(q, cpuid.LeafVendor, vendor.EAX(), maxBasicLeafs)
	d.sweepRange(q, cpuid.LeafExtendedMax, q.Query(cpuid.LeafExtendedMax, 0).EAX(), maxExtendedLeafs)
	slog.Debug("cpuid sweep complete", slog.String("vendor_id", d.VendorID), slog.Int("entries", len(d.Entries)))
	return d
}

func (d *Dump) sweepRange(q cpuid.Querier, first, last, limit uint32) {
	if last < first {
		return
	}
	if last-first >= limit {
		slog.Warn("maximum leaf out of range, truncating sweep", slog.String("first", fmt.Sprintf("0x%08x", first)), slog.String("last", fmt.Sprintf("0x%08x", last)))
		last = first + limit - 1
	}
	for leaf := first; ; leaf++ {
		d.sweepLeaf(q, leaf)
		if leaf == last {
			break
		}
	}
}

// sweepLeaf records leaf and, for enumerable leafs, every sub-leaf up to the
// leaf's terminator.
func (d *Dump) sweepLeaf(q cpuid.Querier, leaf uint32) {
	first := q.Query(leaf, 0)
	d.add(leaf, 0, first)
	var more func(sub uint32, regs cpuid.Registers) bool
	switch leaf {
	case cpuid.LeafCacheParameters, cpuid.LeafAMDCacheTopology:
		// the terminating sub-leaf is recorded too
		more = func(sub uint32, regs cpuid.Registers) bool { return cpuid.Bits(regs.EAX(), 4, 0) != 0 }
	case cpuid.LeafStructuredFeatures:
		maxSub := first.EAX()
		more = func(sub uint32, _ cpuid.Registers) bool { return sub < maxSub }
	case cpuid.LeafTopology, leafExtendedTopologyV2:
		more = func(sub uint32, regs cpuid.Registers) bool { return cpuid.Bits(regs.ECX(), 15, 8) != 0 }
	case leafExtendedState:
		more = func(sub uint32, regs cpuid.Registers) bool { return sub < 2 || regs != (cpuid.Registers{}) }
	default:
		return
	}
	regs := first
	for sub := uint32(1); sub < maxSubleafs && more(sub-1, regs); sub++ {
		regs = q.Query(leaf, sub)
		d.add(leaf, sub, regs)
	}
}

const (
	leafExtendedState      uint32 = 0x0D
	leafExtendedTopologyV2 uint32 = 0x1F
)

func (d *Dump) add(leaf, subleaf uint32, regs cpuid.Registers) {
	d.Entries = append(d.Entries, Entry{
		Leaf:    Hex(leaf),
		Subleaf: Hex(subleaf),
		EAX:     Hex(regs.EAX()),
		EBX:     Hex(regs.EBX()),
		ECX:     Hex(regs.ECX()),
		EDX:     Hex(regs.EDX()),
	})
}

// FromTable returns a dump of every entry stored in t.
func FromTable(t *cpuid.Table) *Dump {
	d := &Dump{Version: FormatVersion}
	for _, key := range t.Entries() {
		regs, _ := t.Lookup(key.Leaf, key.Subleaf)
		d.add(key.Leaf, key.Subleaf, regs)
	}
	if regs, ok := t.Lookup(cpuid.LeafVendor, 0); ok {
		d.VendorID = string(regs.Bytes(cpuid.EBX, cpuid.EDX, cpuid.ECX))
	}
	return d
}

// Table returns a querier that replays the dump. A later entry for the same
// leaf and sub-leaf replaces an earlier one.
func (d *Dump) Table() *cpuid.Table {
	t := cpuid.NewTable()
	for _, e := range d.Entries {
		t.Set(uint32(e.Leaf), uint32(e.Subleaf), e.Registers())
	}
	return t
}

// Marshal encodes the dump as YAML.
func (d *Dump) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode capture")
	}
	return out, nil
}

// Unmarshal decodes a YAML dump and checks its version.
func Unmarshal(data []byte) (*Dump, error) {
	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "failed to decode capture")
	}
	if d.Version != FormatVersion {
		return nil, errors.Errorf("unsupported capture version %d, expected %d", d.Version, FormatVersion)
	}
	if len(d.Entries) == 0 {
		return nil, errors.New("capture has no entries")
	}
	return &d, nil
}

// Save writes the dump to path.
func (d *Dump) Save(path string) error {
	out, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil { // #nosec G306
		return errors.Wrapf(err, "failed to write capture %s", path)
	}
	return nil
}

// Load reads a dump from path.
func Load(path string) (*Dump, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read capture %s", path)
	}
	d, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return d, nil
}
