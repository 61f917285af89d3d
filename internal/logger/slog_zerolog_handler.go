package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// slogBridge adapts a zerolog logger to the slog.Handler contract so
// packages that accept a *slog.Logger write through the same sink as
// the rest of the process.
type slogBridge struct {
	zl     *zerolog.Logger
	group  string
	preset []slog.Attr
}

// NewSlog wraps zl in a *slog.Logger. Records emitted with a context
// carrying a request-scoped logger go to that logger instead.
func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&slogBridge{zl: zl})
}

func (b *slogBridge) Enabled(_ context.Context, lvl slog.Level) bool {
	return zerologLevel(lvl) >= b.zl.GetLevel()
}

func (b *slogBridge) Handle(ctx context.Context, r slog.Record) error {
	ev := FromContext(ctx, b.zl).WithLevel(zerologLevel(r.Level))

	// preset attrs already carry their group prefix
	for _, a := range b.preset {
		ev = field(ev, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = field(ev, b.key(a.Key), a.Value)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *b
	cp.preset = make([]slog.Attr, 0, len(b.preset)+len(attrs))
	cp.preset = append(cp.preset, b.preset...)
	for _, a := range attrs {
		a.Key = b.key(a.Key)
		cp.preset = append(cp.preset, a)
	}
	return &cp
}

// WithGroup flattens groups into dotted key prefixes; a zerolog event
// is a single flat set of fields.
func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	cp := *b
	cp.group = b.key(name)
	return &cp
}

func (b *slogBridge) key(k string) string {
	if b.group == "" {
		return k
	}
	return b.group + "." + k
}

func field(ev *zerolog.Event, key string, v slog.Value) *zerolog.Event {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return ev.Str(key, v.String())
	case slog.KindInt64:
		return ev.Int64(key, v.Int64())
	case slog.KindFloat64:
		return ev.Float64(key, v.Float64())
	case slog.KindBool:
		return ev.Bool(key, v.Bool())
	case slog.KindDuration:
		return ev.Dur(key, v.Duration())
	case slog.KindTime:
		return ev.Time(key, v.Time())
	default:
		return ev.Interface(key, v.Any())
	}
}

// zerologLevel maps the slog level bands onto zerolog's.
func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l < slog.LevelInfo:
		return zerolog.DebugLevel
	case l < slog.LevelWarn:
		return zerolog.InfoLevel
	case l < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
