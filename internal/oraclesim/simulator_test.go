package oraclesim

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"flightsurety/internal/gate"
	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/ledger/shard"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/internal/payout"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

// =============================================================================
// Simulator Test Suite
// =============================================================================
// The simulator talks HTTP to a real ledger served by httptest, so the client
// and the API agree on the wire format.

var (
	simClient = domain.AddressFromSeed("oracle-sim")
	airline   = domain.AddressFromSeed("airline-0")
)

type SimulatorSuite struct {
	suite.Suite
	server   *httptest.Server
	ledger   *service.Service
	recorder *notify.Recorder
	ctx      context.Context
	ref      domain.FlightRef
	sim      *Simulator
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorSuite))
}

func (s *SimulatorSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := gate.NewMemory(simClient)
	s.recorder = notify.NewRecorder()
	s.ledger = service.New(store.New(), g, payout.NewMemory(),
		service.WithShardSource(shard.NewSequence(1, 2, 3)),
		service.WithPublisher(s.recorder),
	)
	s.ctx = requestcontext.WithClientID(context.Background(), simClient)
	_, err := s.ledger.Bootstrap(s.ctx, airline)
	s.Require().NoError(err)

	tokens := jwttoken.NewJWTService("sim-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	h := httptransport.New(s.ledger, g, logger, nil, jwttoken.NewJWTServiceAdapter(tokens), "")
	s.server = httptest.NewServer(httptransport.NewRouter(h, nil))
	s.T().Cleanup(s.server.Close)

	s.ref = domain.FlightRef{Airline: airline, Code: "ND1309", Timestamp: time.Now().Add(time.Hour).Unix()}
	_, err = s.ledger.RegisterFlight(s.ctx, airline, s.ref.Code, s.ref.Timestamp)
	s.Require().NoError(err)

	client := NewClient(s.server.URL, tokens, simClient, time.Minute, s.server.Client())
	accounts := []domain.Address{
		domain.AddressFromSeed("oracle-0"),
		domain.AddressFromSeed("oracle-1"),
		domain.AddressFromSeed("oracle-2"),
	}
	s.sim = New(client, Fixed(models.StatusLateAirline), models.OracleRegistrationFee, accounts, WithLogger(logger))
}

func (s *SimulatorSuite) requested() notify.Event {
	req, err := s.ledger.RequestConfirmation(s.ctx, airline, s.ref)
	s.Require().NoError(err)
	events := s.recorder.Of(notify.EventConfirmationRequested)
	s.Require().NotEmpty(events)
	e := events[len(events)-1]
	s.Equal(req.Index, e.Index)
	return e
}

func (s *SimulatorSuite) TestRegisterLoadsIndexes() {
	s.Require().NoError(s.sim.Register(context.Background()))
	reporters := s.sim.Reporters()
	s.Require().Len(reporters, 3)
	for _, r := range reporters {
		s.Equal([]uint8{1, 2, 3}, r.Indexes)
	}
}

func (s *SimulatorSuite) TestRegisterIsRepeatable() {
	s.Require().NoError(s.sim.Register(context.Background()))
	s.Require().NoError(s.sim.Register(context.Background()), "already registered reporters are reused")
	s.Len(s.sim.Reporters(), 3)
}

func (s *SimulatorSuite) TestHandleConfirmsStatus() {
	s.Require().NoError(s.sim.Register(context.Background()))

	accepted := s.sim.Handle(context.Background(), s.requested())
	s.Equal(3, accepted)

	confirmed := s.recorder.Of(notify.EventStatusConfirmed)
	s.Require().Len(confirmed, 1)
	s.Equal(uint8(models.StatusLateAirline), confirmed[0].Status)
}

func (s *SimulatorSuite) TestHandleIgnoresOtherIndexes() {
	s.Require().NoError(s.sim.Register(context.Background()))
	e := s.requested()
	e.Index = 9
	s.Zero(s.sim.Handle(context.Background(), e))
}

func (s *SimulatorSuite) TestHandleIgnoresOtherEvents() {
	s.Require().NoError(s.sim.Register(context.Background()))
	s.Zero(s.sim.Handle(context.Background(), notify.Event{Type: notify.EventFlightRegistered, Index: 1}))
}
