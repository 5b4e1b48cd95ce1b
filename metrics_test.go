package main

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncConfig"
	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

func TestObserveLinkage(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.observeLinkage(vesyncConfig.LinkageProcessed, vesyncStructs.LinkageActionMap{
		"ESL100": {
			vesyncStructs.TogglePower:     map[string]any{},
			vesyncStructs.PrimaryLevelNum: map[string]any{},
		},
	})
	require.Equal(t, float64(2), testutil.ToFloat64(m.linkageActions.WithLabelValues("ESL100")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.linkageAction.WithLabelValues("ESL100", "60000", "toggle_power")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchSuccess.WithLabelValues(callLinkage)))
	require.Equal(t, 2, testutil.CollectAndCount(m.linkageAction))

	m.observeLinkage(vesyncConfig.LinkageNoData, nil)
	require.Equal(t, float64(0), testutil.ToFloat64(m.fetchSuccess.WithLabelValues(callLinkage)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchTotal.WithLabelValues(callLinkage, "no_data")))
	// previous values stay published until a successful fetch replaces them
	require.Equal(t, 1, testutil.CollectAndCount(m.linkageActions))
}

func TestObserveSpecs(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	specs := map[string]vesyncStructs.DeviceSpec{
		"WIFI-SWITCH-1.3": {Type: "outlet", Model: "esw01", ModelName: "Smart Plug", ModelDisplay: "ESW01-USA"},
	}

	m.observeSpecs(true, nil, specs)
	require.Equal(t, float64(1), testutil.ToFloat64(m.deviceSpec.WithLabelValues("WIFI-SWITCH-1.3", "outlet", "esw01", "Smart Plug", "ESW01-USA")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchTotal.WithLabelValues(callSpecs, "ok")))

	m.observeSpecs(false, errors.New("missing field"), nil)
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchTotal.WithLabelValues(callSpecs, "malformed")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.fetchSuccess.WithLabelValues(callSpecs)))
	require.Equal(t, 1, testutil.CollectAndCount(m.deviceSpec))

	m.observeSpecs(false, nil, nil)
	require.Equal(t, float64(1), testutil.ToFloat64(m.fetchTotal.WithLabelValues(callSpecs, "failed")))
}

func TestObserveRefresh(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.observeRefresh(time.Unix(1700000000, 0))
	require.Equal(t, float64(1700000000), testutil.ToFloat64(m.lastRefresh))
}
