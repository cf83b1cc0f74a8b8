package server

import (
	"context"

	"github.com/relayworks/eventserver-go/pkg/types"
)

// RelayIDHeader carries the authenticated relay identity to downstream
// handlers. The middleware strips any inbound value before setting its own.
const RelayIDHeader = "X-Validated-Relay-ID"

type contextKey string

const (
	relayIDKey      contextKey = "relay_id"
	eventPackageKey contextKey = "event_package"
)

func withRelayID(ctx context.Context, relayID string) context.Context {
	return context.WithValue(ctx, relayIDKey, relayID)
}

func withEventPackage(ctx context.Context, ep *types.EventPackage) context.Context {
	return context.WithValue(ctx, eventPackageKey, ep)
}

// RelayIDFromContext returns the relay identity established by the auth
// middleware. Handlers must use this, never a request header, to identify
// the caller.
func RelayIDFromContext(ctx context.Context) (string, bool) {
	relayID, ok := ctx.Value(relayIDKey).(string)
	return relayID, ok && relayID != ""
}

// EventPackageFromContext returns the event package extracted from a
// verified signed envelope, if the request carried one
func EventPackageFromContext(ctx context.Context) (*types.EventPackage, bool) {
	ep, ok := ctx.Value(eventPackageKey).(*types.EventPackage)
	return ep, ok && ep != nil
}
