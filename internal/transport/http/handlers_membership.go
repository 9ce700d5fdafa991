package httptransport

import (
	"net/http"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/httputil"
)

func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	candidate, err := addressParam(r, "candidate")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.ledger.Admit(r.Context(), caller, candidate)
	if err != nil {
		h.fail(w, r, "admit airline failed", err)
		return
	}
	status := http.StatusAccepted
	if res.Admitted {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleFund(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req FundRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	member := caller
	if req.Member != "" {
		parsed, err := domain.ParseAddress(req.Member)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		member = parsed
	}
	airline, err := h.ledger.Fund(r.Context(), caller, member, req.Stake)
	if err != nil {
		h.fail(w, r, "fund airline failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, airline)
}

func (h *Handler) handleGetAirline(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r, "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	airline, err := h.ledger.GetAirline(r.Context(), addr)
	if err != nil {
		h.fail(w, r, "get airline failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, airline)
}

func (h *Handler) handleCounts(w http.ResponseWriter, r *http.Request) {
	funded, err := h.ledger.FundedCount(r.Context())
	if err != nil {
		h.fail(w, r, "count funded airlines failed", err)
		return
	}
	flights, err := h.ledger.FlightCount(r.Context())
	if err != nil {
		h.fail(w, r, "count flights failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountsResponse{Funded: funded, Flights: flights})
}
