package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	priority []string
	messages []string
}

func (w *recordingWriter) record(priority, m string) error {
	w.priority = append(w.priority, priority)
	w.messages = append(w.messages, m)
	return nil
}

func (w *recordingWriter) Debug(m string) error   { return w.record("debug", m) }
func (w *recordingWriter) Info(m string) error    { return w.record("info", m) }
func (w *recordingWriter) Warning(m string) error { return w.record("warning", m) }
func (w *recordingWriter) Err(m string) error     { return w.record("err", m) }

func TestSyslogHandler(t *testing.T) {
	tests := []struct {
		level    slog.Level
		priority string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warning"},
		{slog.LevelError, "err"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			w := &recordingWriter{}
			h := &SyslogHandler{writer: w, logLeveler: slog.LevelDebug}
			r := slog.NewRecord(time.Now(), tt.level, "decoded", 0)
			r.AddAttrs(slog.String("vendor", "GenuineIntel"))
			require.NoError(t, h.Handle(context.Background(), r))
			require.Len(t, w.messages, 1)
			assert.Equal(t, tt.priority, w.priority[0])
			assert.Equal(t, `level=`+tt.level.String()+` msg="decoded" vendor="GenuineIntel"`, w.messages[0])
		})
	}
}

func TestSyslogHandlerWithAttrs(t *testing.T) {
	w := &recordingWriter{}
	base := &SyslogHandler{writer: w, logLeveler: slog.LevelInfo}
	logger := slog.New(base).With(slog.String("leaf", "0x4"))
	logger.Info("cache")
	logger.Debug("filtered")
	require.Len(t, w.messages, 1)
	assert.Equal(t, `level=INFO msg="cache" leaf="0x4"`, w.messages[0])
	assert.Empty(t, base.attrs)
}
