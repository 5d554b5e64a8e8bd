package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandlerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelDebug))

	log.Info("request", "access_token", "abc", "header", "Bearer xyz", "title", "Buy milk")

	out := buf.String()
	if strings.Contains(out, "abc") || strings.Contains(out, "xyz") {
		t.Errorf("credentials leaked: %s", out)
	}
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("ordinary values should be kept: %s", out)
	}
	if !strings.Contains(out, `"timestamp"`) {
		t.Errorf("time key should be renamed: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), TraceConfig{}, "test", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, span := p.Tracer.Start(context.Background(), "x")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer should not produce valid spans")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestInitWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	var metrics bytes.Buffer
	p, err := Init(context.Background(), TraceConfig{Enabled: true, ServiceName: "taskflow-test"}, "test", &buf, &metrics)
	if err != nil {
		t.Fatal(err)
	}
	_, span := StartClientSpan(context.Background(), p.Tracer, "tasks.list", AttrBackend.String("sqlite"))
	span.End()
	calls, err := p.Meter.Int64Counter("taskflow.test.calls")
	if err != nil {
		t.Fatal(err)
	}
	calls.Add(context.Background(), 3)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "tasks.list") {
		t.Errorf("span not exported: %s", buf.String())
	}
	if !strings.Contains(metrics.String(), "taskflow.test.calls") {
		t.Errorf("metrics not exported: %s", metrics.String())
	}
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), TraceConfig{Enabled: true, Exporter: "carrier-pigeon"}, "test", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown exporter") {
		t.Errorf("expected an unknown exporter error, got %v", err)
	}
}

func TestInitOTLPExporter(t *testing.T) {
	p, err := Init(context.Background(), TraceConfig{Enabled: true, Exporter: ExporterOTLP, Endpoint: "127.0.0.1:1"}, "test", nil, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Nothing was recorded, so shutdown has nothing to send.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestWritesFile(t *testing.T) {
	tests := []struct {
		cfg  TraceConfig
		want bool
	}{
		{TraceConfig{}, false},
		{TraceConfig{Enabled: true}, true},
		{TraceConfig{Enabled: true, Exporter: ExporterFile}, true},
		{TraceConfig{Enabled: true, Exporter: ExporterOTLP}, false},
	}
	for _, tt := range tests {
		if got := tt.cfg.WritesFile(); got != tt.want {
			t.Errorf("%+v: got %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
