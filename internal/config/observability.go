package config

import (
	"github.com/ferdian3456/kinfeed/internal/observability"
	"github.com/knadh/koanf/v2"
)

const defaultServiceName = "kinfeed"

func LoadObservabilityConfig(config *koanf.Koanf) observability.Config {
	observabilityConfig := observability.Config{
		OtelEndpoint: config.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  config.String("OTEL_SERVICE_NAME"),
		Environment:  config.String("ENVIRONMENT"),
		OtelHeaders:  config.String("OTEL_EXPORTER_OTLP_HEADERS"),
		SampleRatio:  config.Float64("OTEL_TRACES_SAMPLER_ARG"),
	}

	if observabilityConfig.ServiceName == "" {
		observabilityConfig.ServiceName = defaultServiceName
	}

	return observabilityConfig
}
