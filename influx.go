package main

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

// pointWriter is satisfied by api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type influxSink struct {
	api    pointWriter
	logger *zap.SugaredLogger
}

// newInfluxSink returns nil when no InfluxDB host is configured. The returned
// close function releases the underlying client.
func newInfluxSink(c config, logger *zap.SugaredLogger) (*influxSink, func()) {
	if c.Influxdb.Host == "" {
		return nil, func() {}
	}
	client := influxdb2.NewClient(c.Influxdb.Host, c.Influxdb.Token)
	logger.Infof("Writing device specifications to InfluxDB %s, bucket %s", c.Influxdb.Host, c.Influxdb.Bucket)
	return &influxSink{
		api:    client.WriteAPIBlocking(c.Influxdb.Org, c.Influxdb.Bucket),
		logger: logger,
	}, client.Close
}

func specPoints(specs map[string]vesyncStructs.DeviceSpec, linkage vesyncStructs.LinkageActionMap, ts time.Time) []*write.Point {
	modules := maps.Keys(specs)
	slices.Sort(modules)

	points := make([]*write.Point, 0, len(modules))
	for _, module := range modules {
		spec := specs[module]
		points = append(points, influxdb2.NewPoint(
			"vesync_device_spec",
			map[string]string{
				"config_module": module,
				"type":          spec.Type,
				"model":         spec.Model,
			},
			map[string]interface{}{
				"model_name":      spec.ModelName,
				"model_display":   spec.ModelDisplay,
				"linkage_actions": len(linkage[module]),
			},
			ts,
		))
	}
	return points
}

func (s *influxSink) writeSpecs(ctx context.Context, specs map[string]vesyncStructs.DeviceSpec, linkage vesyncStructs.LinkageActionMap, ts time.Time) error {
	points := specPoints(specs, linkage, ts)
	if len(points) == 0 {
		return nil
	}
	if err := s.api.WritePoint(ctx, points...); err != nil {
		return err
	}
	s.logger.Infof("Wrote %d device specifications to InfluxDB", len(points))
	return nil
}
