package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/gma-backend/internal/platform/envutil"
)

const redacted = "[REDACTED]"

// Logger is a sugared zap logger that scrubs credentials and pseudonymises
// doctor identities before they reach any sink.
type Logger struct {
	sugar *zap.SugaredLogger
	scrub *scrubber
}

// Options controls output format and scrubbing. The zero value is a
// development logger with scrubbing switched off.
type Options struct {
	Mode     string
	Level    string
	Redact   bool
	HashSalt string
}

// New builds a logger for mode ("production", "development" or "test") with
// scrubbing settings taken from LOG_REDACTION_ENABLED, LOG_HASH_SALT and
// LOG_LEVEL.
func New(mode string) (*Logger, error) {
	return NewWithOptions(Options{
		Mode:     mode,
		Level:    envutil.String("LOG_LEVEL", ""),
		Redact:   envutil.Bool("LOG_REDACTION_ENABLED", true),
		HashSalt: envutil.String("LOG_HASH_SALT", ""),
	})
}

func NewWithOptions(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "test", "nop":
		return &Logger{sugar: zap.NewNop().Sugar(), scrub: newScrubber(opts)}, nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar(), scrub: newScrubber(opts)}, nil
}

func (l *Logger) Sync() { _ = l.sugar.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, l.scrub.pairs(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, l.scrub.pairs(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, l.scrub.pairs(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, l.scrub.pairs(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.sugar.Fatalw(msg, l.scrub.pairs(kv)...) }

// With returns a child logger carrying kv on every entry.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(l.scrub.pairs(kv)...), scrub: l.scrub}
}

type action int

const (
	keep action = iota
	drop
	pseudonymise
)

// Matched by substring against the lower-cased key, first hit wins.
var keyRules = []struct {
	fragment string
	act      action
}{
	{"authorization", drop},
	{"token", drop},
	{"credential", drop},
	{"password", drop},
	{"secret", drop},
	{"cookie", drop},
	{"api_key", drop},
	{"email", drop},
	{"doctor_id", pseudonymise},
	{"external_id", pseudonymise},
	{"subject", pseudonymise},
}

type scrubber struct {
	on   bool
	salt string
}

func newScrubber(opts Options) *scrubber {
	return &scrubber{on: opts.Redact, salt: strings.TrimSpace(opts.HashSalt)}
}

func (s *scrubber) pairs(kv []any) []any {
	if s == nil || !s.on || len(kv) == 0 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := fmt.Sprint(out[i])
		out[i] = key
		out[i+1] = s.value(strings.ToLower(strings.TrimSpace(key)), out[i+1])
	}
	return out
}

func (s *scrubber) value(key string, v any) any {
	switch actionFor(key) {
	case drop:
		return redacted
	case pseudonymise:
		return s.hash(v)
	}
	switch t := v.(type) {
	case string:
		if isJWTShaped(t) {
			return redacted
		}
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = s.value(strings.ToLower(k), inner)
		}
		return m
	case []any:
		list := make([]any, len(t))
		for i, inner := range t {
			list[i] = s.value("", inner)
		}
		return list
	}
	return v
}

func actionFor(key string) action {
	if key == "" {
		return keep
	}
	for _, r := range keyRules {
		if strings.Contains(key, r.fragment) {
			return r.act
		}
	}
	return keep
}

func (s *scrubber) hash(v any) string {
	raw := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func isJWTShaped(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}
