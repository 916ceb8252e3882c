package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/ohsuite/authflow"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	snapshot authflow.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() authflow.MetricsSnapshot { return f.snapshot }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	values := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", m.Name)
			}
			for _, dp := range sum.DataPoints {
				values[m.Name] = dp.Value
			}
		}
	}
	return values
}

func TestOTelExporterObservesCounters(t *testing.T) {
	source := &fakeSource{snapshot: authflow.MetricsSnapshot{
		Counters: map[authflow.MetricID]uint64{
			authflow.MetricLoginSuccess:   5,
			authflow.MetricRefreshSuccess: 9,
		},
	}}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewOTelExporterFromSource(provider.Meter("authflow-test"), source)
	if err != nil {
		t.Fatalf("exporter registration failed: %v", err)
	}
	t.Cleanup(func() { _ = exporter.Unregister() })

	values := collect(t, reader)
	if values["authflow_login_success_total"] != 5 {
		t.Errorf("login success = %d, want 5", values["authflow_login_success_total"])
	}
	if values["authflow_refresh_success_total"] != 9 {
		t.Errorf("refresh success = %d, want 9", values["authflow_refresh_success_total"])
	}
	if values["authflow_logout_total"] != 0 {
		t.Errorf("logout = %d, want 0", values["authflow_logout_total"])
	}

	// The callback pulls a fresh snapshot each collection.
	source.snapshot.Counters[authflow.MetricLoginSuccess] = 6
	values = collect(t, reader)
	if values["authflow_login_success_total"] != 6 {
		t.Errorf("login success after update = %d, want 6", values["authflow_login_success_total"])
	}
}

func TestOTelExporterUnregisterStopsCollection(t *testing.T) {
	source := &fakeSource{snapshot: authflow.MetricsSnapshot{
		Counters: map[authflow.MetricID]uint64{authflow.MetricLogout: 1},
	}}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewOTelExporterFromSource(provider.Meter("authflow-test"), source)
	if err != nil {
		t.Fatalf("exporter registration failed: %v", err)
	}
	if err := exporter.Unregister(); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}

	if values := collect(t, reader); len(values) != 0 {
		t.Errorf("collected %v after unregister", values)
	}
}

func TestOTelExporterNilArguments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); !errors.Is(err, ErrNilMeter) {
		t.Errorf("nil meter error = %v, want ErrNilMeter", err)
	}
	if _, err := NewOTelExporterFromSource(provider.Meter("t"), nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("nil source error = %v, want ErrNilSource", err)
	}

	var exporter *OTelExporter
	if err := exporter.Unregister(); err != nil {
		t.Errorf("nil exporter Unregister = %v", err)
	}
}
