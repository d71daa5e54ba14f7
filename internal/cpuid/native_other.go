// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

//go:build !amd64

package cpuid

import (
	"runtime"

	"github.com/pkg/errors"
)

// Native is unavailable on this architecture.
type Native struct{}

// NewNative reports that CPUID is not available on this architecture.
func NewNative() (*Native, error) {
	return nil, errors.Wrapf(ErrUnsupportedArchitecture, "GOARCH=%s", runtime.GOARCH)
}

// Query implements Querier. It is never reached because NewNative fails.
func (*Native) Query(leaf, subleaf uint32) Registers {
	return Registers{}
}
