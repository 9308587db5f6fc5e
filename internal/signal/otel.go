package signal

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/aydocorp/opscomposer/internal/signal"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
