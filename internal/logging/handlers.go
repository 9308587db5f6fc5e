package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time, such as the
// mission currently being composed.
type ContextProvider func() []slog.Attr

// fanout delivers every record to each sink whose level admits it.
type fanout []slog.Handler

func newFanout(sinks ...slog.Handler) fanout {
	var f fanout
	for _, h := range sinks {
		if h != nil {
			f = append(f, h)
		}
	}
	return f
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every sink. A failing sink does not stop the others; the
// errors are joined.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// dynamicAttrs appends the provider's attributes to each record.
type dynamicAttrs struct {
	next     slog.Handler
	provider ContextProvider
}

func (d dynamicAttrs) Enabled(ctx context.Context, level slog.Level) bool {
	return d.next.Enabled(ctx, level)
}

func (d dynamicAttrs) Handle(ctx context.Context, r slog.Record) error {
	if attrs := d.provider(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return d.next.Handle(ctx, r)
}

func (d dynamicAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return dynamicAttrs{next: d.next.WithAttrs(attrs), provider: d.provider}
}

func (d dynamicAttrs) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return dynamicAttrs{next: d.next.WithGroup(name), provider: d.provider}
}
