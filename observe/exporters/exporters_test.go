package exporters

import (
	"context"
	"testing"
)

func TestNewTracingExporter_None(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewTracingExporter(none) error = %v", err)
	}
	if exp == nil {
		t.Fatal("NewTracingExporter(none) = nil, want discard exporter")
	}
}

func TestNewTracingExporter_Unknown(t *testing.T) {
	if _, err := NewTracingExporter(context.Background(), "carrier-pigeon"); err == nil {
		t.Error("NewTracingExporter(unknown) error = nil, want error")
	}
}

func TestNewTracingExporter_OTLPWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	if _, err := NewTracingExporter(context.Background(), "otlp"); err == nil {
		t.Error("NewTracingExporter(otlp) without endpoint error = nil, want error")
	}
}

func TestNewMetricsReader_None(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewMetricsReader(none) error = %v", err)
	}
	if reader == nil {
		t.Fatal("NewMetricsReader(none) = nil, want discard reader")
	}
}

func TestNewMetricsReader_Prometheus(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "prometheus")
	if err != nil {
		t.Fatalf("NewMetricsReader(prometheus) error = %v", err)
	}
	if reader == nil {
		t.Fatal("NewMetricsReader(prometheus) = nil, want exporter")
	}
}

func TestNewMetricsReader_Unknown(t *testing.T) {
	if _, err := NewMetricsReader(context.Background(), "csv"); err == nil {
		t.Error("NewMetricsReader(unknown) error = nil, want error")
	}
}
