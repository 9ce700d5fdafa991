// Package e2e drives the ledger through its HTTP API with godog feature
// files. Each scenario gets a fresh in-process server.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"flightsurety/internal/gate"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/ledger/shard"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/internal/payout"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

const adminToken = "e2e-admin-token"

// departure is the scheduled time used for every flight in the features.
var departure = time.Date(2030, 1, 15, 9, 30, 0, 0, time.UTC).Unix()

// TestContext holds the per-scenario server and the last response.
type TestContext struct {
	server   *httptest.Server
	tokens   *jwttoken.JWTService
	accounts *payout.MemoryLedger
	recorder *notify.Recorder
	client   domain.Address
	actor    domain.Address

	lastStatus int
	lastBody   []byte
	vars       map[string]any
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// Start boots a fresh ledger with genesis as its first funded member.
func (tc *TestContext) Start(genesis string) error {
	tc.Stop()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tc.client = domain.AddressFromSeed("dapp")
	tc.tokens = jwttoken.NewJWTService("e2e-signing-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	tc.accounts = payout.NewMemory()
	tc.recorder = notify.NewRecorder()
	tc.vars = map[string]any{}

	g := gate.NewMemory(tc.client)
	svc := service.New(store.New(), g, tc.accounts,
		service.WithLogger(logger),
		service.WithPublisher(tc.recorder),
		service.WithShardSource(shard.NewSequence(1, 2, 3)),
	)
	ctx := requestcontext.WithClientID(context.Background(), tc.client)
	if _, err := svc.Bootstrap(ctx, tc.Address(genesis)); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	h := httptransport.New(svc, g, logger, nil, jwttoken.NewJWTServiceAdapter(tc.tokens), adminToken)
	tc.server = httptest.NewServer(httptransport.NewRouter(h, nil))
	return nil
}

func (tc *TestContext) Stop() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

// Address maps a feature-file alias to its account.
func (tc *TestContext) Address(alias string) domain.Address {
	return domain.AddressFromSeed(alias)
}

func (tc *TestContext) ActAs(alias string) {
	tc.actor = tc.Address(alias)
}

func (tc *TestContext) Actor() domain.Address {
	return tc.actor
}

func (tc *TestContext) Departure() int64 {
	return departure
}

func (tc *TestContext) Accounts() *payout.MemoryLedger {
	return tc.accounts
}

func (tc *TestContext) Events(t notify.EventType) []notify.Event {
	return tc.recorder.Of(t)
}

func (tc *TestContext) Set(key string, v any) {
	tc.vars[key] = v
}

func (tc *TestContext) Get(key string) (any, bool) {
	v, ok := tc.vars[key]
	return v, ok
}

// POST sends body as the current actor.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.bearer(tc.actor))
}

// GET reads path as the current actor.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.bearer(tc.actor))
}

// Admin calls a gate administration route.
func (tc *TestContext) Admin(method, path string, body any) error {
	return tc.do(method, path, body, map[string]string{"X-Admin-Token": adminToken})
}

func (tc *TestContext) bearer(as domain.Address) map[string]string {
	if as.IsZero() {
		return nil
	}
	token, err := tc.tokens.GenerateAccessToken(as, tc.client, time.Hour)
	if err != nil {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// Decode unmarshals the last response body into v.
func (tc *TestContext) Decode(v any) error {
	if err := json.Unmarshal(tc.lastBody, v); err != nil {
		return fmt.Errorf("decode %q: %w", string(tc.lastBody), err)
	}
	return nil
}

// GetResponseField reads a dotted path from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var cur any
	if err := tc.Decode(&cur); err != nil {
		return nil, err
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		if cur, ok = obj[part]; !ok {
			return nil, fmt.Errorf("field %q not found in %s", field, string(tc.lastBody))
		}
	}
	return cur, nil
}

// ExpectStatus fails unless the last response carried status.
func (tc *TestContext) ExpectStatus(status int) error {
	if tc.lastStatus != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, tc.lastStatus, string(tc.lastBody))
	}
	return nil
}
