package metrics

import (
	coremetrics "github.com/dinehop/dinehop/core/metrics"
	"github.com/dinehop/dinehop/infra/logger"
)

// New builds the sink stack selected by the configuration. Disabled backends
// are simply skipped; with none enabled the NopSink is returned.
func New(cfg coremetrics.Config, log logger.Logger) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		prom, err := NewPromSink()
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, prom)
		log.Infof("prometheus sink enabled")
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
		log.Infof("influx sink enabled: %s", cfg.InfluxURL)
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return coremetrics.NewMultiSink(sinks...), nil
	}
}
