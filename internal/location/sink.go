// Package location defines where polled coordinates are reported.
package location

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by Inject when mock locations are not allowed.
var ErrPermissionDenied = errors.New("mock location permission denied")

// Sink reports a location on behalf of the remote entity.
type Sink interface {
	Inject(ctx context.Context, lat, lon, alt float64) error
	Clear(ctx context.Context) error
}

// PermissionGuard refuses injection while Allowed reports false.
// Clear always reaches the wrapped sink.
type PermissionGuard struct {
	Sink    Sink
	Allowed func() bool
}

func NewPermissionGuard(sink Sink, allowed func() bool) *PermissionGuard {
	return &PermissionGuard{Sink: sink, Allowed: allowed}
}

var _ Sink = (*PermissionGuard)(nil)

func (g *PermissionGuard) Inject(ctx context.Context, lat, lon, alt float64) error {
	if g.Allowed != nil && !g.Allowed() {
		return ErrPermissionDenied
	}
	return g.Sink.Inject(ctx, lat, lon, alt)
}

func (g *PermissionGuard) Clear(ctx context.Context) error {
	return g.Sink.Clear(ctx)
}
