package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
)

func (h *Handler) handleRegisterOracle(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RegisterOracleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	oracle, err := h.ledger.RegisterOracle(r.Context(), caller, req.Fee)
	if err != nil {
		h.fail(w, r, "register oracle failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, oracle)
}

func (h *Handler) handleGetMyIndexes(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	indexes, err := h.ledger.GetMyIndexes(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get indexes failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IndexesResponse{Reporter: caller, Indexes: indexes})
}

func (h *Handler) handleRequestConfirmation(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RequestConfirmationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ref, err := req.ref()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	request, err := h.ledger.RequestConfirmation(r.Context(), caller, ref)
	if err != nil {
		h.fail(w, r, "request confirmation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 8)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid index"))
		return
	}
	ref, err := flightParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.ledger.GetRequest(r.Context(), uint8(index), ref)
	if err != nil {
		h.fail(w, r, "get request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req SubmitResponseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ref, err := req.ref()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := h.ledger.SubmitResponse(r.Context(), caller, *req.Index, ref, *req.Status)
	if err != nil {
		h.fail(w, r, "submit response failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
