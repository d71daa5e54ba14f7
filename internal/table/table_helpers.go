// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// table_helpers.go contains helpers that format decoded values for display in table fields.

package table

import (
	"fmt"
	"strconv"
)

// CacheSizeString formats a size in bytes the way lscpu does, e.g., "48K", "2M".
// Sizes that are not a whole number of KiB are printed in bytes.
func CacheSizeString(sizeBytes int) string {
	switch {
	case sizeBytes <= 0:
		return ""
	case sizeBytes%(1<<30) == 0:
		return fmt.Sprintf("%dG", sizeBytes>>30)
	case sizeBytes%(1<<20) == 0:
		return fmt.Sprintf("%dM", sizeBytes>>20)
	case sizeBytes%(1<<10) == 0:
		return fmt.Sprintf("%dK", sizeBytes>>10)
	}
	return fmt.Sprintf("%dB", sizeBytes)
}

// HexString formats a register-derived value as lower case hex with a 0x prefix.
func HexString(val uint32) string {
	return fmt.Sprintf("0x%x", val)
}

// YesNo returns "Yes" or "No".
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// IntOrEmpty returns the decimal string for val, or an empty string when val is zero,
// i.e., when the value was not reported.
func IntOrEmpty(val int) string {
	if val == 0 {
		return ""
	}
	return strconv.Itoa(val)
}
