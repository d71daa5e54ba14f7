// Package app defines application-wide types, constants, and context
// that are shared across multiple commands.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"

	"cpuprobe/internal/table"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// Context represents the application context that can be accessed from all commands.
type Context struct {
	Timestamp   string // Timestamp is the timestamp when the application was started.
	OutputDir   string // OutputDir is the directory where reports are written. Empty means stdout.
	LogFilePath string // LogFilePath is the path to the log file.
	Version     string // Version is the version of the application.
	Debug       bool   // Debug is true if the application is running in debug mode.
}

// Table name constants used across multiple commands.
const (
	TableNameCpuprobe = "cpuprobe"
)

// Flag names for input and format flags used by reporting commands.
const (
	FlagInputName  = "input"
	FlagFormatName = "format"
)

// Global flag variables for reporting commands.
var (
	FlagInput  string
	FlagFormat []string
)

// Category represents a report category with associated tables and flags.
type Category struct {
	FlagName     string
	Tables       []table.TableDefinition
	FlagVar      *bool
	DefaultValue bool
	Help         string
}

// Flag names for flags defined in the root command, but sometimes used in other commands.
const (
	FlagDebugName     = "debug"
	FlagSyslogName    = "syslog"
	FlagLogStdOutName = "log-stdout"
	FlagOutputDirName = "output"
)

// Flag represents a command-line flag with its name and help text.
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related flags with a group name.
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

// InputFlag describes the --input flag shared by commands that decode a processor.
var InputFlag = Flag{
	Name: FlagInputName,
	Help: "decode register values from a file written by the capture command instead of executing CPUID",
}
