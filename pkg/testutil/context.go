package testutil

import (
	"net/http"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

// WithCaller sets the authenticated account on the request, as RequireAuth
// would after validating a token.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithClient sets the relaying client application checked by the gate.
func WithClient(req *http.Request, client domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithClientID(req.Context(), client))
}

// WithAuth sets both caller and client. Zero addresses are skipped.
func WithAuth(req *http.Request, caller, client domain.Address) *http.Request {
	ctx := req.Context()
	if !caller.IsZero() {
		ctx = requestcontext.WithCaller(ctx, caller)
	}
	if !client.IsZero() {
		ctx = requestcontext.WithClientID(ctx, client)
	}
	return req.WithContext(ctx)
}
