package main

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncConfig"
	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

const (
	callLinkage = "linkage"
	callSpecs   = "specs"
)

type metrics struct {
	deviceSpec     *prometheus.GaugeVec
	linkageActions *prometheus.GaugeVec
	linkageAction  *prometheus.GaugeVec
	fetchTotal     *prometheus.CounterVec
	fetchSuccess   *prometheus.GaugeVec
	lastRefresh    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		deviceSpec: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vesync_device_spec_info",
				Help: "Device specification per configuration module, always 1.",
			},
			[]string{"config_module", "type", "model", "model_name", "model_display"}),
		linkageActions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vesync_linkage_actions",
				Help: "Number of supported linkage actions per configuration module.",
			},
			[]string{"config_module"},
		),
		linkageAction: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vesync_linkage_action_supported",
				Help: "Supported linkage action per configuration module, always 1.",
			},
			[]string{"config_module", "action_id", "action"},
		),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vesync_config_fetch_total",
				Help: "Configuration fetches by call and result.",
			},
			[]string{"call", "result"},
		),
		fetchSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vesync_config_fetch_success",
				Help: "Whether the last fetch of a call succeeded.",
			},
			[]string{"call"},
		),
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vesync_config_last_refresh_timestamp_seconds",
				Help: "Unix time of the last refresh cycle.",
			},
		),
	}
	reg.MustRegister(m.deviceSpec)
	reg.MustRegister(m.linkageActions)
	reg.MustRegister(m.linkageAction)
	reg.MustRegister(m.fetchTotal)
	reg.MustRegister(m.fetchSuccess)
	reg.MustRegister(m.lastRefresh)
	return m
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *metrics) observeLinkage(res vesyncConfig.LinkageResult, linkage vesyncStructs.LinkageActionMap) {
	m.fetchTotal.WithLabelValues(callLinkage, res.String()).Inc()
	m.fetchSuccess.WithLabelValues(callLinkage).Set(boolToFloat(res == vesyncConfig.LinkageProcessed))
	if res != vesyncConfig.LinkageProcessed {
		return
	}

	m.linkageActions.Reset()
	m.linkageAction.Reset()
	for module, actions := range linkage {
		m.linkageActions.WithLabelValues(module).Set(float64(len(actions)))
		ids := maps.Keys(actions)
		slices.Sort(ids)
		for _, id := range ids {
			m.linkageAction.WithLabelValues(module, strconv.Itoa(int(id)), id.String()).Set(1)
		}
	}
}

func (m *metrics) observeSpecs(ok bool, err error, specs map[string]vesyncStructs.DeviceSpec) {
	result := "ok"
	switch {
	case err != nil:
		result = "malformed"
	case !ok:
		result = "failed"
	}
	m.fetchTotal.WithLabelValues(callSpecs, result).Inc()
	m.fetchSuccess.WithLabelValues(callSpecs).Set(boolToFloat(ok))
	if !ok {
		return
	}

	m.deviceSpec.Reset()
	for module, spec := range specs {
		m.deviceSpec.WithLabelValues(module, spec.Type, spec.Model, spec.ModelName, spec.ModelDisplay).Set(1)
	}
}

func (m *metrics) observeRefresh(t time.Time) {
	m.lastRefresh.Set(float64(t.Unix()))
}
