package otel

import (
	"context"
	"errors"

	"github.com/ohsuite/authflow"
	"github.com/ohsuite/authflow/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
}

type observedCounter struct {
	id         authflow.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter registers authflow counters as OpenTelemetry observable
// counters, pulled from a snapshot on every collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// NewOTelExporter registers the exporter reading from the given
// [authflow.Manager].
func NewOTelExporter(meter metric.Meter, manager *authflow.Manager) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, manager)
}

// NewOTelExporterFromSource registers the exporter from a custom source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		instrument, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, err
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: instrument})
		observables = append(observables, instrument)
	}

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, err
	}
	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, counter := range e.counters {
		observer.ObserveInt64(counter.instrument, int64(snapshot.Counters[counter.id]))
	}
	return nil
}

// Unregister detaches the collection callback.
func (e *OTelExporter) Unregister() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
