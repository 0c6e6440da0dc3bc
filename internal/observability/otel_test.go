package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "junk": 0.1, "0.5": 0.5, "-3": 0, "7": 1}
	for raw, want := range cases {
		if got := parseRatio(raw); got != want {
			t.Fatalf("parseRatio(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestOtelConfigFromEnvDefaultsOff(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	cfg := OtelConfigFromEnv("gma-backend", "test", "1.0.0")
	if cfg.Enabled {
		t.Fatal("otel should be disabled by default")
	}
	if cfg.ServiceName != "gma-backend" || cfg.SampleRatio != 0.1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestExporterKind(t *testing.T) {
	cases := []struct {
		cfg  OtelConfig
		want string
	}{
		{OtelConfig{}, ExporterStdout},
		{OtelConfig{Endpoint: "collector:4318"}, ExporterOTLP},
		{OtelConfig{Exporter: "stdout", Endpoint: "collector:4318"}, ExporterStdout},
		{OtelConfig{Exporter: "bogus"}, ExporterStdout},
	}
	for _, tc := range cases {
		if got := exporterKind(tc.cfg); got != tc.want {
			t.Fatalf("exporterKind(%+v): want=%s got=%s", tc.cfg, tc.want, got)
		}
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown, err := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitOTel: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSpansWithoutProviderAreSafe(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	if ctx == nil {
		t.Fatal("nil context")
	}
	EndSpan(span, errors.New("boom"))
}
