// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package cpuid

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownVendor is returned by Introspect when the vendor identifier is
	// neither GenuineIntel nor AuthenticAMD.
	ErrUnknownVendor = errors.New("unrecognized CPU vendor")
	// ErrCacheEnumerationOverrun is returned when an enumerable cache leaf does
	// not report its terminating entry within maxCacheSubleafs queries.
	ErrCacheEnumerationOverrun = errors.New("cache enumeration did not terminate")
	// ErrUnsupportedArchitecture is returned by NewNative on architectures
	// without the CPUID instruction.
	ErrUnsupportedArchitecture = errors.New("CPUID is not supported on this architecture")
)

// mustHold panics when a decoder is invoked before its prerequisite leaf or
// feature has been established.
func mustHold(cond bool, format string, args ...any) {
	if !cond {
		panic("precondition violated: " + fmt.Sprintf(format, args...))
	}
}
