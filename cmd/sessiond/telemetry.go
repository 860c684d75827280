package main

import (
	"context"
	"fmt"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	gsotel "github.com/MrEthical07/goSession/metrics/export/otel"
	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/MrEthical07/goSession/cmd/sessiond"

// otelRoutes binds the store to an OpenTelemetry meter and serves a pull
// snapshot of the collected instruments at /metrics/otel.
func otelRoutes(store *goSession.Store, d *deps) (func(*gin.Engine), error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exp, err := gsotel.New(provider.Meter(meterName), store)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("otel exporter: %w", err)
	}
	d.closers = append(d.closers,
		func() { _ = provider.Shutdown(context.Background()) },
		func() { _ = exp.Close() },
	)

	return func(r *gin.Engine) {
		r.GET("/metrics/otel", func(c *gin.Context) {
			var rm metricdata.ResourceMetrics
			if err := reader.Collect(c.Request.Context(), &rm); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, flatten(rm))
		})
	}, nil
}

func flatten(rm metricdata.ResourceMetrics) map[string]int64 {
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}
