// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"log/slog"
	"sort"
)

// Querier issues one CPUID query and returns the four output registers.
// Implementations must be deterministic for a given (leaf, subleaf) pair.
type Querier interface {
	Query(leaf, subleaf uint32) Registers
}

// TimestampCounter is implemented by queriers that can also read the time
// stamp counter. Introspect uses it to estimate timing overhead when the
// processor reports the "tsc" feature.
type TimestampCounter interface {
	// SerializedTimestamp reads the counter after a serializing instruction.
	SerializedTimestamp() uint64
	// UnserializedTimestamp reads the counter without serialization.
	UnserializedTimestamp() uint64
}

// session is the single channel through which one introspection pass talks
// to the querier. Every query result is handed back by value and must be
// consumed before the next query is issued.
type session struct {
	q     Querier
	count int
}

func newSession(q Querier) *session {
	return &session{q: q}
}

func (s *session) query(leaf uint32) Registers {
	return s.querySub(leaf, 0)
}

func (s *session) querySub(leaf, subleaf uint32) Registers {
	regs := s.q.Query(leaf, subleaf)
	s.count++
	slog.Debug("cpuid query", slog.String("leaf", Leaf{leaf, subleaf}.String()),
		slog.Any("eax", regs[EAX]), slog.Any("ebx", regs[EBX]), slog.Any("ecx", regs[ECX]), slog.Any("edx", regs[EDX]))
	return regs
}

// Table is a Querier backed by canned register values. Queries for leafs that
// are not in the table return zeroed registers. Table records how often each
// leaf was queried.
type Table struct {
	entries map[Leaf]Registers
	calls   map[Leaf]int
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		entries: make(map[Leaf]Registers),
		calls:   make(map[Leaf]int),
	}
}

// Set stores the registers returned for (leaf, subleaf).
func (t *Table) Set(leaf, subleaf uint32, regs Registers) *Table {
	t.entries[Leaf{leaf, subleaf}] = regs
	return t
}

// Query implements Querier.
func (t *Table) Query(leaf, subleaf uint32) Registers {
	key := Leaf{leaf, subleaf}
	t.calls[key]++
	return t.entries[key]
}

// Calls returns how many times leaf was queried, across all sub-leafs.
func (t *Table) Calls(leaf uint32) int {
	n := 0
	for key, c := range t.calls {
		if key.Leaf == leaf {
			n += c
		}
	}
	return n
}

// Queried returns the distinct leafs that have been queried, sorted.
func (t *Table) Queried() []Leaf {
	leafs := make([]Leaf, 0, len(t.calls))
	for key := range t.calls {
		leafs = append(leafs, key)
	}
	sortLeafs(leafs)
	return leafs
}

// Entries returns the stored leafs, sorted.
func (t *Table) Entries() []Leaf {
	leafs := make([]Leaf, 0, len(t.entries))
	for key := range t.entries {
		leafs = append(leafs, key)
	}
	sortLeafs(leafs)
	return leafs
}

// Lookup returns the registers stored for (leaf, subleaf).
func (t *Table) Lookup(leaf, subleaf uint32) (Registers, bool) {
	regs, ok := t.entries[Leaf{leaf, subleaf}]
	return regs, ok
}

// ResetCalls clears the call counters.
func (t *Table) ResetCalls() {
	t.calls = make(map[Leaf]int)
}

func sortLeafs(leafs []Leaf) {
	sort.Slice(leafs, func(i, j int) bool {
		if leafs[i].Leaf != leafs[j].Leaf {
			return leafs[i].Leaf < leafs[j].Leaf
		}
		return leafs[i].Subleaf < leafs[j].Subleaf
	})
}
