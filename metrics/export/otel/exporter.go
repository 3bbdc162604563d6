package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
}

type counterBinding struct {
	id   authcore.MetricID
	inst metric.Int64ObservableCounter
}

// histogramBinding publishes one cumulative gauge per bucket bound plus a
// total. OTel has no observable histogram instrument.
type histogramBinding struct {
	id      authcore.MetricID
	buckets []metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine counters as observable OTel instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterBinding
	histograms   []histogramBinding
}

func NewOTelExporter(meter metric.Meter, engine *authcore.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource creates every instrument up front and registers a
// single callback that reads one snapshot per collection.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		inst, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterBinding{id: def.ID, inst: inst})
		observables = append(observables, inst)
	}
	for _, def := range internaldefs.HistogramDefs {
		b, err := newHistogramBinding(meter, def)
		if err != nil {
			return nil, err
		}
		e.histograms = append(e.histograms, b)
		observables = append(observables, b.observables()...)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func newHistogramBinding(meter metric.Meter, def internaldefs.HistogramDef) (histogramBinding, error) {
	b := histogramBinding{
		id:      def.ID,
		buckets: make([]metric.Int64ObservableGauge, len(internaldefs.HistogramBoundSuffix)),
	}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative count of "+def.Name+" samples at or below the bound."))
		if err != nil {
			return b, fmt.Errorf("bucket gauge %s: %w", name, err)
		}
		b.buckets[i] = g
	}

	countName := def.Name + "_count"
	g, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Total "+def.Name+" samples."))
	if err != nil {
		return b, fmt.Errorf("count gauge %s: %w", countName, err)
	}
	b.count = g
	return b, nil
}

func (b histogramBinding) observables() []metric.Observable {
	out := make([]metric.Observable, 0, len(b.buckets)+1)
	for _, g := range b.buckets {
		out = append(out, g)
	}
	return append(out, b.count)
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.inst, int64(snap.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[h.id]))
		for i, g := range h.buckets {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
