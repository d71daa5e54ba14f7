package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/json"
	"fmt"

	"cpuprobe/internal/cpuid"
)

func createJsonReport(info *cpuid.ProcessorInfo) (out []byte, err error) {
	if info == nil {
		return nil, fmt.Errorf("no processor information to report")
	}
	out, err = json.MarshalIndent(info, "", " ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal processor information: %w", err)
	}
	out = append(out, '\n')
	return
}
