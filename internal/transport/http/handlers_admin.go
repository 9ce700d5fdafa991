package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flightsurety/internal/platform/middleware"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

// RegisterAdmin registers gate administration under /admin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		r.Put("/operational", h.handleSetOperational)
		r.Get("/clients", h.handleListClients)
		r.Put("/clients/{address}", h.handleAuthorizeClient)
		r.Delete("/clients/{address}", h.handleRevokeClient)
	})
}

func (h *Handler) handleSetOperational(w http.ResponseWriter, r *http.Request) {
	var req OperationalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Operational == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "operational is required"))
		return
	}
	ctx := r.Context()
	if err := h.gate.SetOperational(ctx, *req.Operational); err != nil {
		h.fail(w, r, "set operational failed", dErrors.Wrap(err, dErrors.CodeInternal, "failed to update gate"))
		return
	}
	h.logger.InfoContext(ctx, "gate operational flag changed",
		"operational", *req.Operational,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.gate.Clients(r.Context())
	if err != nil {
		h.fail(w, r, "list clients failed", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read gate"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClientsResponse{Clients: clients})
}

func (h *Handler) handleAuthorizeClient(w http.ResponseWriter, r *http.Request) {
	client, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx := r.Context()
	if err := h.gate.Authorize(ctx, client); err != nil {
		h.fail(w, r, "authorize client failed", dErrors.Wrap(err, dErrors.CodeInternal, "failed to update gate"))
		return
	}
	h.logger.InfoContext(ctx, "client authorized",
		"client", client,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeClient(w http.ResponseWriter, r *http.Request) {
	client, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx := r.Context()
	if err := h.gate.Revoke(ctx, client); err != nil {
		h.fail(w, r, "revoke client failed", dErrors.Wrap(err, dErrors.CodeInternal, "failed to update gate"))
		return
	}
	h.logger.InfoContext(ctx, "client revoked",
		"client", client,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
