package oraclesim

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
)

const (
	maxRetries   = 3
	retryWait    = 250 * time.Millisecond
	retryMaxWait = 5 * time.Second
)

// Client calls the ledger API on behalf of reporters. Each call carries a
// freshly minted token naming the reporter as caller and the simulator as
// relaying client.
type Client struct {
	http   *resty.Client
	tokens *jwttoken.JWTService
	client domain.Address
	ttl    time.Duration
}

func NewClient(baseURL string, tokens *jwttoken.JWTService, client domain.Address, ttl time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(rateLimited)
	return &Client{
		http:   rc,
		tokens: tokens,
		client: client,
		ttl:    ttl,
	}
}

// rateLimited retries only refusals the ledger made before doing any work.
// A reporter answer is not idempotent, so transport errors are not retried.
func rateLimited(resp *resty.Response, err error) bool {
	return err == nil && resp != nil && resp.StatusCode() == http.StatusTooManyRequests
}

func (c *Client) RegisterOracle(ctx context.Context, reporter domain.Address, fee domain.Amount) (models.Oracle, error) {
	var oracle models.Oracle
	err := c.do(ctx, reporter, http.MethodPost, "/oracles", httptransport.RegisterOracleRequest{Fee: fee}, &oracle)
	return oracle, err
}

func (c *Client) GetMyIndexes(ctx context.Context, reporter domain.Address) ([]uint8, error) {
	var resp httptransport.IndexesResponse
	if err := c.do(ctx, reporter, http.MethodGet, "/oracles/indexes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Indexes[:], nil
}

func (c *Client) SubmitResponse(ctx context.Context, reporter domain.Address, index uint8, ref domain.FlightRef, status models.StatusCode) (service.ResponseOutcome, error) {
	code := uint8(status)
	req := httptransport.SubmitResponseRequest{
		FlightBody: httptransport.FlightBody{Airline: ref.Airline.String(), Flight: ref.Code, Timestamp: ref.Timestamp},
		Index:      &index,
		Status:     &code,
	}
	var outcome service.ResponseOutcome
	err := c.do(ctx, reporter, http.MethodPost, "/oracles/responses", req, &outcome)
	return outcome, err
}

// do performs one call. Error envelopes come back as coded errors so callers
// can tell rejections from transport faults.
func (c *Client) do(ctx context.Context, as domain.Address, method, path string, body, out any) error {
	token, err := c.tokens.GenerateAccessToken(as, c.client, c.ttl)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	var envelope httputil.ErrorResponse
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&envelope)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if resp != nil && resp.RawResponse != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unreachable")
	}
	if resp.IsError() {
		if envelope.Error == "" {
			return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode()))
		}
		return dErrors.New(dErrors.Code(envelope.Error), envelope.ErrorDescription)
	}
	return nil
}
