package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "homes_"

// WithStats lets the stats command read counters from g.
func (a *App) WithStats(g prometheus.Gatherer) *App {
	a.stats = g
	return a
}

// Stats prints the client's own metrics, such as cache hits and fetches.
func (a *App) Stats(ctx context.Context) error {
	if a.stats == nil {
		printlnFn("Metrics are not enabled")
		return nil
	}
	families, err := a.stats.Gather()
	if err != nil {
		a.log.Warn(ctx, "gather metrics", "error", err)
		return a.report(err)
	}

	t := newTable("Metric", "Value")
	rows := 0
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), metricPrefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", l.GetName(), l.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			t.Row(name, strconv.FormatFloat(v, 'f', -1, 64))
			rows++
		}
	}
	if rows == 0 {
		printlnFn("No metrics recorded yet")
		return nil
	}
	fmt.Fprintln(a.out, t.Render())
	return nil
}
