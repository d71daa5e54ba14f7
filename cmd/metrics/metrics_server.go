// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"cpuprobe/internal/cpuid"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

const promMetricPrefix = "cpuprobe_"

// processorMetrics holds the gauges exported for one decoded processor.
type processorMetrics struct {
	info              *prometheus.GaugeVec
	feature           *prometheus.GaugeVec
	cacheSize         *prometheus.GaugeVec
	logicalProcessors prometheus.Gauge
	coresPerPackage   prometheus.Gauge
	threadsPerCore    prometheus.Gauge
	addressBits       *prometheus.GaugeVec
}

func newProcessorMetrics(reg prometheus.Registerer) (*processorMetrics, error) {
	m := &processorMetrics{
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promMetricPrefix + "info",
			Help: "Processor identification, always 1",
		}, []string{"vendor_id", "model_name", "microarchitecture", "family", "model", "stepping"}),
		feature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promMetricPrefix + "feature",
			Help: "1 if the processor reports the feature, 0 otherwise",
		}, []string{"name"}),
		cacheSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promMetricPrefix + "cache_size_bytes",
			Help: "Size of each enumerated cache in bytes",
		}, []string{"level", "type"}),
		logicalProcessors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: promMetricPrefix + "logical_processors",
			Help: "Logical processors per package",
		}),
		coresPerPackage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: promMetricPrefix + "cores_per_package",
			Help: "Physical cores per package",
		}),
		threadsPerCore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: promMetricPrefix + "threads_per_core",
			Help: "Logical processors per core",
		}),
		addressBits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: promMetricPrefix + "address_bits",
			Help: "Maximum address width in bits",
		}, []string{"kind"}),
	}
	collectors := []prometheus.Collector{m.info, m.feature, m.cacheSize, m.logicalProcessors, m.coresPerPackage, m.threadsPerCore, m.addressBits}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register Prometheus metric: %w", err)
		}
	}
	return m, nil
}

// update replaces every gauge value with those of info.
func (m *processorMetrics) update(info *cpuid.ProcessorInfo) {
	sig := info.Signature
	m.info.Reset()
	m.info.WithLabelValues(
		info.VendorID,
		info.BrandString,
		info.MicroArchitecture,
		strconv.FormatUint(uint64(sig.DisplayFamily), 10),
		strconv.FormatUint(uint64(sig.DisplayModel), 10),
		strconv.FormatUint(uint64(sig.Stepping), 10),
	).Set(1)
	m.feature.Reset()
	if info.Features != nil {
		for name, present := range info.Features.Map() {
			value := 0.0
			if present {
				value = 1
			}
			m.feature.WithLabelValues(name).Set(value)
		}
	}
	m.cacheSize.Reset()
	for _, c := range info.CacheParameters {
		m.cacheSize.WithLabelValues(strconv.Itoa(c.Level), c.Type.String()).Set(float64(c.SizeBytes))
	}
	pf := info.ProcessorFeatures
	m.logicalProcessors.Set(float64(pf.LogicalProcessors))
	m.coresPerPackage.Set(float64(pf.CoresPerPackage))
	m.threadsPerCore.Set(float64(pf.ThreadsPerCore))
	m.addressBits.WithLabelValues("physical").Set(float64(info.PhysicalAddressBits))
	m.addressBits.WithLabelValues("linear").Set(float64(info.LinearAddressBits))
}

// writeMetricsText writes the current values in the Prometheus text exposition format.
func writeMetricsText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// startPrometheusServer serves /metrics on listenAddr until the returned
// server is shut down. Listen errors are returned immediately.
func startPrometheusServer(listenAddr string, gatherer prometheus.Gatherer) (*http.Server, net.Addr, error) {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	slog.Info("Starting Prometheus metrics server", slog.String("address", listener.Addr().String()))
	go func() {
		err := server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Prometheus HTTP server Serve error", slog.String("error", err.Error()))
		}
	}()
	return server, listener.Addr(), nil
}
