package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flightsurety/internal/gate"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/payout"
	"flightsurety/internal/platform/metrics"
	"flightsurety/internal/platform/ratelimit"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/testutil"
)

func newScaffold(t *testing.T, opts ...Option) (*Handler, http.Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := gate.NewMemory(dapp)
	svc := service.New(store.New(), g, payout.NewMemory(), service.WithLogger(logger))
	if _, err := svc.Bootstrap(context.Background(), genesis); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)
	tokens := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	h := New(svc, g, logger, m, jwttoken.NewJWTServiceAdapter(tokens), "", opts...)
	return h, NewRouter(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

func TestRouterScaffold(t *testing.T) {
	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		_, router := newScaffold(t)

		testutil.When(t, "probing /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it should respond ok", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
			})
		})

		testutil.When(t, "scraping /metrics after a request", func(t *testing.T) {
			testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it should expose request latency", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				if !strings.Contains(rr.Body.String(), "flightsurety_http_request_duration_seconds") {
					t.Fatalf("latency histogram missing from scrape")
				}
			})
		})

		testutil.When(t, "calling a ledger route without a token", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/insurance/balance", nil))

			testutil.Then(t, "it should be unauthorized", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "calling an admin route with admin disabled", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/clients", nil)
			req.Header.Set("X-Admin-Token", "")
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it should be unauthorized", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})
	})
}

func TestHandlersReadCallerFromContext(t *testing.T) {
	testutil.Given(t, "a handler invoked behind authentication", func(t *testing.T) {
		h, _ := newScaffold(t)

		testutil.When(t, "the genesis airline funds more stake", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/airlines/fund", FundRequest{Stake: models.MinAirlineStake})
			rr := testutil.DoRequest(http.HandlerFunc(h.handleFund), testutil.WithAuth(req, genesis, dapp))

			testutil.Then(t, "the stake is added", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				airline := testutil.UnmarshalResponse[models.Airline](t, rr)
				if airline.Stake != models.MinAirlineStake {
					t.Fatalf("expected stake %s, got %s", models.MinAirlineStake.Ether(), airline.Stake.Ether())
				}
			})
		})

		testutil.When(t, "the relaying client is not authorized", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/airlines/fund", FundRequest{Stake: models.MinAirlineStake})
			req = testutil.WithClient(testutil.WithCaller(req, genesis), domain.AddressFromSeed("rogue"))
			rr := testutil.DoRequest(http.HandlerFunc(h.handleFund), req)

			testutil.Then(t, "the ledger refuses it", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
			})
		})

		testutil.When(t, "the caller is missing from the context", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/insurance/balance", nil)
			rr := testutil.DoRequest(http.HandlerFunc(h.handleBalance), req)

			testutil.Then(t, "it should fail as an internal error", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal")
			})
		})
	})
}

func TestRateLimitedRoutes(t *testing.T) {
	testutil.Given(t, "a router limiting each caller to one request a minute", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		limit := ratelimit.Middleware(ratelimit.NewMemory(), ratelimit.Policy{Limit: 1, Window: time.Minute}, logger, nil)
		_, router := newScaffold(t, WithRateLimit(limit))
		tokens := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
		token, err := tokens.GenerateAccessToken(genesis, dapp, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		balance := func() *http.Request {
			req := testutil.NewJSONRequest(t, http.MethodGet, "/insurance/balance", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		}

		testutil.When(t, "the caller repeats a request", func(t *testing.T) {
			first := testutil.DoRequest(router, balance())
			second := testutil.DoRequest(router, balance())

			testutil.Then(t, "the second is refused", func(t *testing.T) {
				testutil.AssertStatus(t, first, http.StatusOK)
				testutil.AssertStatusAndError(t, second, http.StatusTooManyRequests, "rate_limited")
			})
			testutil.And(t, "the refusal says when to retry", func(t *testing.T) {
				if second.Header().Get("Retry-After") == "" {
					t.Fatalf("Retry-After header missing")
				}
			})
		})

		testutil.When(t, "probing /healthz", func(t *testing.T) {
			for range 3 {
				testutil.AssertStatus(t, testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil)), http.StatusOK)
			}
		})
	})
}
