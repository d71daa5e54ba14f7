package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// syslogWriter is the subset of *syslog.Writer used by SyslogHandler.
type syslogWriter interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
}

// SyslogHandler is a slog.Handler that logs to syslog.
type SyslogHandler struct {
	writer     syslogWriter
	logLeveler slog.Leveler
	addSource  bool
	attrs      []slog.Attr
}

func NewSyslogHandler(logOpts *slog.HandlerOptions) (*SyslogHandler, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, filepath.Base(os.Args[0]))
	if err != nil {
		return nil, err
	}
	return &SyslogHandler{writer: writer, logLeveler: logOpts.Level, addSource: logOpts.AddSource}, nil
}

// format renders a record as logfmt-style key="value" pairs.
func (h *SyslogHandler) format(r slog.Record) string {
	var msg string
	if r.PC != 0 && h.addSource {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		// file path relative to the working directory, prefixed with its last element
		filePath := f.File
		if strings.HasPrefix(filePath, "/") {
			wd, err := os.Getwd()
			if err == nil {
				filePath, err = filepath.Rel(wd, filePath)
				if err == nil {
					_, lastWd := filepath.Split(wd)
					filePath = filepath.Join(lastWd, filePath)
				} else {
					filePath = f.File
				}
			}
		}
		msg = fmt.Sprintf("level=%s source=%s:%d msg=\"%s\"", r.Level.String(), filePath, f.Line, r.Message)
	} else {
		msg = fmt.Sprintf("level=%s msg=\"%s\"", r.Level.String(), r.Message)
	}
	for _, attr := range h.attrs {
		msg += fmt.Sprintf(" %s=\"%s\"", attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		msg += fmt.Sprintf(" %s=\"%s\"", attr.Key, attr.Value)
		return true
	})
	return msg
}

func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := h.format(r)
	switch r.Level {
	case slog.LevelDebug:
		return h.writer.Debug(msg)
	case slog.LevelInfo:
		return h.writer.Info(msg)
	case slog.LevelWarn:
		return h.writer.Warning(msg)
	case slog.LevelError:
		return h.writer.Err(msg)
	default:
		return h.writer.Info(msg)
	}
}

func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.logLeveler.Level()
}
