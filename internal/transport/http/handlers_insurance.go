package httptransport

import (
	"net/http"

	"flightsurety/pkg/platform/httputil"
)

func (h *Handler) handleRegisterFlight(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req RegisterFlightRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	flight, err := h.ledger.RegisterFlight(r.Context(), caller, req.Code, req.Timestamp)
	if err != nil {
		h.fail(w, r, "register flight failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, flight)
}

func (h *Handler) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	ref, err := flightParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	flight, err := h.ledger.GetFlight(r.Context(), ref)
	if err != nil {
		h.fail(w, r, "get flight failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flight)
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req BuyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ref, err := req.ref()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := h.ledger.Buy(r.Context(), caller, ref, req.Amount)
	if err != nil {
		h.fail(w, r, "buy insurance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, policy)
}

func (h *Handler) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ref, err := flightParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := h.ledger.GetCredit(r.Context(), caller, ref)
	if err != nil {
		h.fail(w, r, "get credit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.Balance(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get balance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Passenger: caller, Balance: balance})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	res, err := h.ledger.Withdraw(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "withdraw failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}
