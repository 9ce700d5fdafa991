// Package httptransport exposes the ledger over a JSON HTTP API. Handlers
// decode, delegate to the ledger and encode; they hold no business rules.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/platform/metrics"
	"flightsurety/internal/platform/middleware"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
	"flightsurety/pkg/requestcontext"
)

const requestTimeout = 30 * time.Second

//go:generate mockgen -source=handler.go -destination=mocks/transport-mocks.go -package=mocks GateAdmin

// Ledger is the subset of the ledger service the API calls.
type Ledger interface {
	Admit(ctx context.Context, caller, candidate domain.Address) (service.AdmissionResult, error)
	Fund(ctx context.Context, caller, member domain.Address, stake domain.Amount) (models.Airline, error)
	RegisterFlight(ctx context.Context, caller domain.Address, code string, timestamp int64) (models.Flight, error)
	Buy(ctx context.Context, passenger domain.Address, ref domain.FlightRef, premium domain.Amount) (models.Policy, error)
	Withdraw(ctx context.Context, passenger domain.Address) (service.WithdrawalResult, error)
	RegisterOracle(ctx context.Context, reporter domain.Address, fee domain.Amount) (models.Oracle, error)
	GetMyIndexes(ctx context.Context, reporter domain.Address) ([models.IndexesPerOracle]uint8, error)
	RequestConfirmation(ctx context.Context, requester domain.Address, ref domain.FlightRef) (models.ConfirmationRequest, error)
	SubmitResponse(ctx context.Context, reporter domain.Address, index uint8, ref domain.FlightRef, code uint8) (service.ResponseOutcome, error)

	GetAirline(ctx context.Context, addr domain.Address) (models.Airline, error)
	GetFlight(ctx context.Context, ref domain.FlightRef) (models.Flight, error)
	GetCredit(ctx context.Context, passenger domain.Address, ref domain.FlightRef) (models.Policy, error)
	Balance(ctx context.Context, passenger domain.Address) (domain.Amount, error)
	FundedCount(ctx context.Context) (int, error)
	FlightCount(ctx context.Context) (int, error)
	GetRequest(ctx context.Context, index uint8, ref domain.FlightRef) (service.RequestView, error)
}

// GateAdmin administers the access gate.
type GateAdmin interface {
	SetOperational(ctx context.Context, operational bool) error
	Authorize(ctx context.Context, client domain.Address) error
	Revoke(ctx context.Context, client domain.Address) error
	Clients(ctx context.Context) ([]domain.Address, error)
}

// Handler serves the ledger and gate administration routes.
type Handler struct {
	ledger       Ledger
	gate         GateAdmin
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	adminToken   string
	rateLimit    func(http.Handler) http.Handler
	events       EventStream
}

type Option func(*Handler)

// WithRateLimit throttles the authenticated ledger routes with mw. It runs
// after authentication so limits can be keyed by caller.
func WithRateLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.rateLimit = mw
	}
}

func New(
	ledger Ledger,
	gate GateAdmin,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	adminToken string,
	opts ...Option) *Handler {
	h := &Handler{
		ledger:       ledger,
		gate:         gate,
		logger:       logger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
		adminToken:   adminToken,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter builds the root router: probes, metrics, ledger and admin routes.
// A nil metricsHandler leaves /metrics unrouted.
func NewRouter(h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	h.Register(r)
	h.RegisterEvents(r)
	h.RegisterAdmin(r)
	return r
}

// Register registers the ledger routes. Every route requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}

		r.Get("/airlines", h.handleCounts)
		r.Post("/airlines/fund", h.handleFund)
		r.Get("/airlines/{address}", h.handleGetAirline)
		r.Post("/airlines/{candidate}/admit", h.handleAdmit)

		r.Post("/flights", h.handleRegisterFlight)
		r.Get("/flights/{airline}/{code}/{timestamp}", h.handleGetFlight)

		r.Post("/insurance", h.handleBuy)
		r.Get("/insurance/balance", h.handleBalance)
		r.Post("/insurance/withdraw", h.handleWithdraw)
		r.Get("/insurance/{airline}/{code}/{timestamp}", h.handleGetCredit)

		r.Post("/oracles", h.handleRegisterOracle)
		r.Get("/oracles/indexes", h.handleGetMyIndexes)
		r.Post("/oracles/requests", h.handleRequestConfirmation)
		r.Get("/oracles/requests/{index}/{airline}/{code}/{timestamp}", h.handleGetRequest)
		r.Post("/oracles/responses", h.handleSubmitResponse)
	})
}

// caller returns the authenticated acting account. RequireAuth guarantees it
// is set, so a missing caller is a wiring fault.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return caller, true
}

// fail logs at a level matching the error class and writes the envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.IsRejection(err) {
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func addressParam(r *http.Request, name string) (domain.Address, error) {
	addr, err := domain.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+name)
	}
	return addr, nil
}

// flightParams reads {airline}/{code}/{timestamp} path parameters.
func flightParams(r *http.Request) (domain.FlightRef, error) {
	airline, err := addressParam(r, "airline")
	if err != nil {
		return domain.FlightRef{}, err
	}
	ts, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil {
		return domain.FlightRef{}, dErrors.New(dErrors.CodeBadRequest, "invalid timestamp")
	}
	ref := domain.FlightRef{Airline: airline, Code: chi.URLParam(r, "code"), Timestamp: ts}
	if err := ref.Validate(); err != nil {
		return domain.FlightRef{}, err
	}
	return ref, nil
}
