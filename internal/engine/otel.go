package engine

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/canaswarm/microbot/internal/engine"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
