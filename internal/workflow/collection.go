// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cpuprobe/internal/app"
	"cpuprobe/internal/capture"
	"cpuprobe/internal/cpuid"
	"cpuprobe/internal/cpus"
	"cpuprobe/internal/util"
)

// Source identifies where CPUID register values are read from.
type Source struct {
	Name    string        // host name, or the capture's recorded host
	Querier cpuid.Querier // native instruction or replayed table
	Dump    *capture.Dump // set when replaying a capture file
}

// OpenSource returns the native CPUID source, or a replay of the capture file
// at inputPath when it is not empty.
func OpenSource(inputPath string) (Source, error) {
	if inputPath != "" {
		return sourceFromFile(inputPath)
	}
	native, err := cpuid.NewNative()
	if err != nil {
		return Source{}, fmt.Errorf("%w, use --%s to decode a capture file", err, app.FlagInputName)
	}
	hostname, err := os.Hostname()
	if err != nil {
		slog.Warn("failed to get host name", slog.String("error", err.Error()))
		hostname = "localhost"
	}
	return Source{Name: hostname, Querier: native}, nil
}

func sourceFromFile(inputPath string) (Source, error) {
	path, err := util.AbsPath(inputPath)
	if err != nil {
		return Source{}, fmt.Errorf("failed to expand input path: %w", err)
	}
	exists, err := util.FileExists(path)
	if err != nil {
		return Source{}, err
	}
	if !exists {
		return Source{}, fmt.Errorf("input file %s does not exist", path)
	}
	dump, err := capture.Load(path)
	if err != nil {
		return Source{}, err
	}
	name := dump.Host
	if name == "" {
		name = filepath.Base(path)
	}
	slog.Info("replaying capture", slog.String("path", path), slog.String("host", dump.Host), slog.Int("entries", len(dump.Entries)))
	return Source{Name: name, Querier: dump.Table(), Dump: dump}, nil
}

// Introspect decodes the processor behind src and fills in the
// microarchitecture when the signature is known. A cache enumeration overrun
// is reported as a warning, the partially decoded processor is still returned.
func Introspect(src Source) (*cpuid.ProcessorInfo, error) {
	info, err := cpuid.Introspect(src.Querier)
	if err != nil {
		if !errors.Is(err, cpuid.ErrCacheEnumerationOverrun) {
			return nil, fmt.Errorf("failed to decode CPUID on %s: %w", src.Name, err)
		}
		slog.Warn("cache enumeration incomplete", slog.String("source", src.Name), slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cpu, err := cpus.LookupSignature(info)
	if err != nil {
		slog.Debug("microarchitecture not identified", slog.String("error", err.Error()))
	} else {
		info.MicroArchitecture = cpu.MicroArchitecture
	}
	return info, nil
}
