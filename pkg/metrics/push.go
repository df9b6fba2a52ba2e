package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// GaugePusher sends one-off gauges to a Prometheus Pushgateway, for batch
// jobs that exit before they could be scraped.
type GaugePusher struct {
	addr string
	job  string
}

// NewGaugePusher takes host:port or a full URL.
func NewGaugePusher(addr, job string) *GaugePusher {
	return &GaugePusher{addr: addr, job: job}
}

// PushGauge replaces the job's metric group with a single gauge.
func (p *GaugePusher) PushGauge(ctx context.Context, name, help string, value float64, grouping map[string]string) error {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	g.Set(value)

	pusher := push.New(p.addr, p.job).Collector(g)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push %s to %s: %w", name, p.addr, err)
	}
	return nil
}
