// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package cpus maps a decoded processor signature (vendor, display family,
// display model and stepping) to a microarchitecture.
package cpus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cpuprobe/internal/cpuid"
)

// Microarchitecture constants
const (
	// Intel Core CPUs
	UarchHSW = "HSW"
	UarchBDW = "BDW"
	UarchSKL = "SKL"
	UarchKBL = "KBL"
	UarchCFL = "CFL"
	UarchRKL = "RKL"
	UarchTGL = "TGL"
	UarchADL = "ADL"
	UarchMTL = "MTL"
	UarchARL = "ARL"
	// Intel Xeon CPUs
	UarchHSX   = "HSX"
	UarchBDX   = "BDX"
	UarchSKX   = "SKX"
	UarchCLX   = "CLX"
	UarchCPX   = "CPX"
	UarchICX   = "ICX"
	UarchSPR   = "SPR"
	UarchEMR   = "EMR"
	UarchSRF   = "SRF"
	UarchGNR   = "GNR"
	UarchGNR_D = "GNR-D" //lint:ignore ST1003 microarchitecture names use underscores to match Intel specifications
	UarchCWF   = "CWF"
	UarchDMR   = "DMR"
	// AMD CPUs
	UarchNaples     = "Naples"
	UarchRome       = "Rome"
	UarchMilan      = "Milan"
	UarchGenoa      = "Genoa"
	UarchBergamo    = "Bergamo"
	UarchTurinZen5  = "Turin (Zen 5)"
	UarchTurinZen5c = "Turin (Zen 5c)"
)

// CPU describes a known microarchitecture.
type CPU struct {
	MicroArchitecture string
	Name              string
	Vendor            string
	// ThreadsPerCore is the SMT width of the part, 1 when SMT is not
	// implemented.
	ThreadsPerCore int
}

// cpuDefinitions maps microarchitecture name to its definition
var cpuDefinitions = map[string]CPU{
	// Intel Core CPUs
	UarchHSW: {UarchHSW, "Haswell", cpuid.IntelVendorID, 2},
	UarchBDW: {UarchBDW, "Broadwell", cpuid.IntelVendorID, 2},
	UarchSKL: {UarchSKL, "Skylake", cpuid.IntelVendorID, 2},
	UarchKBL: {UarchKBL, "Kaby Lake", cpuid.IntelVendorID, 2},
	UarchCFL: {UarchCFL, "Coffee Lake", cpuid.IntelVendorID, 2},
	UarchRKL: {UarchRKL, "Rocket Lake", cpuid.IntelVendorID, 2},
	UarchTGL: {UarchTGL, "Tiger Lake", cpuid.IntelVendorID, 2},
	UarchADL: {UarchADL, "Alder Lake", cpuid.IntelVendorID, 2},
	UarchMTL: {UarchMTL, "Meteor Lake", cpuid.IntelVendorID, 2},
	UarchARL: {UarchARL, "Arrow Lake", cpuid.IntelVendorID, 1},
	// Intel Xeon CPUs
	UarchHSX:   {UarchHSX, "Haswell-EP", cpuid.IntelVendorID, 2},
	UarchBDX:   {UarchBDX, "Broadwell-EP", cpuid.IntelVendorID, 2},
	UarchSKX:   {UarchSKX, "Skylake-SP", cpuid.IntelVendorID, 2},
	UarchCLX:   {UarchCLX, "Cascade Lake", cpuid.IntelVendorID, 2},
	UarchCPX:   {UarchCPX, "Cooper Lake", cpuid.IntelVendorID, 2},
	UarchICX:   {UarchICX, "Ice Lake-SP", cpuid.IntelVendorID, 2},
	UarchSPR:   {UarchSPR, "Sapphire Rapids", cpuid.IntelVendorID, 2},
	UarchEMR:   {UarchEMR, "Emerald Rapids", cpuid.IntelVendorID, 2},
	UarchSRF:   {UarchSRF, "Sierra Forest", cpuid.IntelVendorID, 1},
	UarchGNR:   {UarchGNR, "Granite Rapids", cpuid.IntelVendorID, 2},
	UarchGNR_D: {UarchGNR_D, "Granite Rapids-D", cpuid.IntelVendorID, 2},
	UarchCWF:   {UarchCWF, "Clearwater Forest", cpuid.IntelVendorID, 1},
	UarchDMR:   {UarchDMR, "Diamond Rapids", cpuid.IntelVendorID, 1},
	// AMD CPUs
	UarchNaples:     {UarchNaples, "EPYC 7001 (Zen)", cpuid.AMDVendorID, 2},
	UarchRome:       {UarchRome, "EPYC 7002 (Zen 2)", cpuid.AMDVendorID, 2},
	UarchMilan:      {UarchMilan, "EPYC 7003 (Zen 3)", cpuid.AMDVendorID, 2},
	UarchGenoa:      {UarchGenoa, "EPYC 9004 (Zen 4)", cpuid.AMDVendorID, 2},
	UarchBergamo:    {UarchBergamo, "EPYC 97x4 (Zen 4c)", cpuid.AMDVendorID, 2},
	UarchTurinZen5:  {UarchTurinZen5, "EPYC 9005 (Zen 5)", cpuid.AMDVendorID, 2},
	UarchTurinZen5c: {UarchTurinZen5c, "EPYC 9005 (Zen 5c)", cpuid.AMDVendorID, 2},
}

// identifier matches decimal display family, model and stepping values. Model
// and Stepping are anchored regular expressions; an empty Stepping matches any
// stepping.
type identifier struct {
	Vendor   string
	Family   uint32
	Model    string
	Stepping string
}

var identifiers = []struct {
	id    identifier
	uarch string
}{
	// Intel Core CPUs
	{identifier{cpuid.IntelVendorID, 6, "(60|69|70)", ""}, UarchHSW},
	{identifier{cpuid.IntelVendorID, 6, "(61|71)", ""}, UarchBDW},
	{identifier{cpuid.IntelVendorID, 6, "(78|94)", ""}, UarchSKL},
	{identifier{cpuid.IntelVendorID, 6, "(142|158)", "9"}, UarchKBL},
	{identifier{cpuid.IntelVendorID, 6, "(142|158)", "(10|11|12|13)"}, UarchCFL},
	{identifier{cpuid.IntelVendorID, 6, "167", ""}, UarchRKL},
	{identifier{cpuid.IntelVendorID, 6, "(140|141)", ""}, UarchTGL},
	{identifier{cpuid.IntelVendorID, 6, "(151|154)", ""}, UarchADL},
	{identifier{cpuid.IntelVendorID, 6, "170", ""}, UarchMTL},
	{identifier{cpuid.IntelVendorID, 6, "(197|198)", ""}, UarchARL},
	// Intel Xeon CPUs
	{identifier{cpuid.IntelVendorID, 6, "63", ""}, UarchHSX},
	{identifier{cpuid.IntelVendorID, 6, "(79|86)", ""}, UarchBDX},
	{identifier{cpuid.IntelVendorID, 6, "85", "[0-4]"}, UarchSKX},
	{identifier{cpuid.IntelVendorID, 6, "85", "[5-7]"}, UarchCLX},
	{identifier{cpuid.IntelVendorID, 6, "85", "11"}, UarchCPX},
	{identifier{cpuid.IntelVendorID, 6, "(106|108)", ""}, UarchICX},
	{identifier{cpuid.IntelVendorID, 6, "143", ""}, UarchSPR},
	{identifier{cpuid.IntelVendorID, 6, "207", ""}, UarchEMR},
	{identifier{cpuid.IntelVendorID, 6, "175", ""}, UarchSRF},
	{identifier{cpuid.IntelVendorID, 6, "173", ""}, UarchGNR},
	{identifier{cpuid.IntelVendorID, 6, "174", ""}, UarchGNR_D},
	{identifier{cpuid.IntelVendorID, 6, "221", ""}, UarchCWF},
	{identifier{cpuid.IntelVendorID, 19, "1", ""}, UarchDMR},
	// AMD CPUs
	{identifier{cpuid.AMDVendorID, 23, "1", ""}, UarchNaples},
	{identifier{cpuid.AMDVendorID, 23, "49", ""}, UarchRome},
	{identifier{cpuid.AMDVendorID, 25, "1", ""}, UarchMilan},
	{identifier{cpuid.AMDVendorID, 25, "(1[6-9]|2[0-9]|3[01])", ""}, UarchGenoa}, // model 16-31
	{identifier{cpuid.AMDVendorID, 25, "(16[0-9]|17[0-5])", ""}, UarchBergamo},   // model 160-175
	{identifier{cpuid.AMDVendorID, 26, "2", ""}, UarchTurinZen5},
	{identifier{cpuid.AMDVendorID, 26, "17", ""}, UarchTurinZen5c},
}

// Lookup returns the CPU matching the given vendor and display signature.
func Lookup(vendor string, family, model, stepping uint32) (cpu CPU, err error) {
	var match bool
	modelStr := strconv.FormatUint(uint64(model), 10)
	steppingStr := strconv.FormatUint(uint64(stepping), 10)
	for _, entry := range identifiers {
		id := entry.id
		if id.Vendor != vendor || id.Family != family {
			continue
		}
		match, err = matchAnchored(id.Model, modelStr)
		if err != nil {
			return
		}
		if match && id.Stepping != "" {
			match, err = matchAnchored(id.Stepping, steppingStr)
			if err != nil {
				return
			}
		}
		if !match {
			continue
		}
		var ok bool
		cpu, ok = cpuDefinitions[entry.uarch]
		if !ok {
			err = fmt.Errorf("CPU definition not found for microarchitecture %s", entry.uarch)
		}
		return
	}
	err = fmt.Errorf("CPU match not found for vendor %s, family %d, model %d, stepping %d", vendor, family, model, stepping)
	return
}

// LookupSignature is Lookup applied to the vendor and display signature of
// info.
func LookupSignature(info *cpuid.ProcessorInfo) (CPU, error) {
	sig := info.Signature
	return Lookup(info.VendorID, sig.DisplayFamily, sig.DisplayModel, sig.Stepping)
}

// GetCPUByMicroArchitecture returns the definition of uarch, matched without
// regard to case.
func GetCPUByMicroArchitecture(uarch string) (cpu CPU, err error) {
	if def, ok := cpuDefinitions[uarch]; ok {
		return def, nil
	}
	for key, def := range cpuDefinitions {
		if strings.EqualFold(key, uarch) {
			return def, nil
		}
	}
	err = fmt.Errorf("CPU match not found for uarch %s", uarch)
	return
}

func matchAnchored(pattern, value string) (bool, error) {
	re, err := regexp.Compile("^(" + pattern + ")$")
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}
