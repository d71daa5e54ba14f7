// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package expr evaluates boolean expressions over a decoded processor, e.g.,
// "sse42 && (avx || avx2) && cores_per_package >= 8".
//
// Every feature name is a boolean variable. Names that are not valid
// identifiers, such as "tsc-deadline" or "3dnow", are written in brackets:
// "[tsc-deadline]". Scalar properties are numeric variables; see Variables.
package expr

import (
	"fmt"
	"sort"
	"strings"

	"cpuprobe/internal/cpuid"

	"github.com/casbin/govaluate"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// ErrUnknownVariable is returned when an expression names a variable that is
// neither a feature nor a scalar property.
var ErrUnknownVariable = errors.New("unknown variable")

// scalar variable names
const (
	VarFamily               = "family"
	VarModel                = "model"
	VarStepping             = "stepping"
	VarMaxBasicLeaf         = "max_basic_leaf"
	VarMaxExtendedLeaf      = "max_extended_leaf"
	VarLogicalProcessors    = "logical_processors"
	VarCoresPerPackage      = "cores_per_package"
	VarThreadsPerCore       = "threads_per_core"
	VarPhysicalAddressBits  = "physical_address_bits"
	VarLinearAddressBits    = "linear_address_bits"
	VarCacheLineSize        = "cache_line_size"
	VarSmallestCacheBytes   = "smallest_cache_bytes"
	VarLargestCacheBytes    = "largest_cache_bytes"
	VarPerfMonVersion       = "perfmon_version"
	VarPerfMonGPCounters    = "perfmon_gp_counters"
	VarPerfMonFixedCounters = "perfmon_fixed_counters"
)

// Expression is a compiled boolean expression.
type Expression struct {
	source    string
	evaluable *govaluate.EvaluableExpression
	vars      mapset.Set[string]
}

// Compile parses source.
func Compile(source string) (*Expression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("empty expression")
	}
	evaluable, err := govaluate.NewEvaluableExpression(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse expression %q", source)
	}
	return &Expression{
		source:    source,
		evaluable: evaluable,
		vars:      mapset.NewSet(evaluable.Vars()...),
	}, nil
}

// String returns the source of the expression.
func (e *Expression) String() string {
	return e.source
}

// Vars returns the variable names used by the expression, sorted.
func (e *Expression) Vars() []string {
	names := e.vars.ToSlice()
	sort.Strings(names)
	return names
}

// Evaluate evaluates the expression against info. The expression must yield
// a boolean.
func (e *Expression) Evaluate(info *cpuid.ProcessorInfo) (bool, error) {
	params := Variables(info)
	unknown := e.vars.Difference(mapset.NewSetFromMapKeys(params))
	if unknown.Cardinality() > 0 {
		names := unknown.ToSlice()
		sort.Strings(names)
		return false, errors.Wrap(ErrUnknownVariable, strings.Join(names, ", "))
	}
	result, err := e.evaluable.Evaluate(params)
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate expression %q", e.source)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q yields %v, not a boolean", e.source, result)
	}
	return b, nil
}

// Check compiles and evaluates source against info.
func Check(source string, info *cpuid.ProcessorInfo) (bool, error) {
	e, err := Compile(source)
	if err != nil {
		return false, err
	}
	return e.Evaluate(info)
}

// Variables returns the values an expression can refer to: every known
// feature as a bool and the scalar properties as float64.
func Variables(info *cpuid.ProcessorInfo) map[string]any {
	params := make(map[string]any)
	if info.Features != nil {
		for name, present := range info.Features.Map() {
			params[name] = present
		}
	}
	pf := info.ProcessorFeatures
	scalars := map[string]int{
		VarFamily:               int(info.Signature.DisplayFamily),
		VarModel:                int(info.Signature.DisplayModel),
		VarStepping:             int(info.Signature.Stepping),
		VarMaxBasicLeaf:         int(info.MaxBasicLeaf),
		VarMaxExtendedLeaf:      int(info.MaxExtendedLeaf),
		VarLogicalProcessors:    pf.LogicalProcessors,
		VarCoresPerPackage:      pf.CoresPerPackage,
		VarThreadsPerCore:       pf.ThreadsPerCore,
		VarPhysicalAddressBits:  info.PhysicalAddressBits,
		VarLinearAddressBits:    info.LinearAddressBits,
		VarCacheLineSize:        info.CacheLineSize,
		VarSmallestCacheBytes:   info.SmallestCacheSize(),
		VarLargestCacheBytes:    info.LargestCacheSize(),
		VarPerfMonVersion:       pf.PerfMon.Version,
		VarPerfMonGPCounters:    pf.PerfMon.GPCounters,
		VarPerfMonFixedCounters: pf.PerfMon.FixedCounters,
	}
	for name, v := range scalars {
		params[name] = float64(v)
	}
	// per-cache sizes, e.g., l1d_bytes, l3_bytes
	for _, c := range info.CacheParameters {
		params[strings.ToLower(c.Name())+"_bytes"] = float64(c.SizeBytes)
	}
	return params
}
