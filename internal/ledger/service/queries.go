package service

import (
	"context"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/store"
	"flightsurety/pkg/domain"
)

// RequestView is a confirmation request together with its response buckets.
type RequestView struct {
	Request   models.ConfirmationRequest             `json:"request"`
	Responses map[models.StatusCode][]domain.Address `json:"responses"`
}

func (s *Service) GetAirline(ctx context.Context, addr domain.Address) (models.Airline, error) {
	var airline models.Airline
	err := s.view(ctx, "get_airline", func(tx *store.Tx) error {
		a, err := tx.Airline(addr)
		airline = a
		return storeErr(err, "airline")
	})
	return airline, err
}

func (s *Service) GetFlight(ctx context.Context, ref domain.FlightRef) (models.Flight, error) {
	var flight models.Flight
	err := s.view(ctx, "get_flight", func(tx *store.Tx) error {
		f, err := tx.Flight(ref.Key())
		flight = f
		return storeErr(err, "flight")
	})
	return flight, err
}

// GetCredit returns the passenger's policy on a flight, including the credit
// it received at settlement.
func (s *Service) GetCredit(ctx context.Context, passenger domain.Address, ref domain.FlightRef) (models.Policy, error) {
	var policy models.Policy
	err := s.view(ctx, "get_credit", func(tx *store.Tx) error {
		p, err := tx.Policy(domain.PolicyKey(ref.Key(), passenger))
		policy = p
		return storeErr(err, "policy")
	})
	return policy, err
}

// Balance returns the passenger's withdrawable credit.
func (s *Service) Balance(ctx context.Context, passenger domain.Address) (domain.Amount, error) {
	var balance domain.Amount
	err := s.view(ctx, "balance", func(tx *store.Tx) error {
		balance = tx.Balance(passenger)
		return nil
	})
	return balance, err
}

func (s *Service) FundedCount(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, "funded_count", func(tx *store.Tx) error {
		n = tx.FundedCount()
		return nil
	})
	return n, err
}

func (s *Service) FlightCount(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, "flight_count", func(tx *store.Tx) error {
		n = tx.FlightCount()
		return nil
	})
	return n, err
}

// GetRequest returns the confirmation request for a flight in one shard.
func (s *Service) GetRequest(ctx context.Context, index uint8, ref domain.FlightRef) (RequestView, error) {
	var view RequestView
	err := s.view(ctx, "get_request", func(tx *store.Tx) error {
		req, err := tx.Request(domain.RequestKey(index, ref.Airline, ref.Code, ref.Timestamp))
		if err != nil {
			return storeErr(err, "confirmation request")
		}
		view.Request = req
		view.Responses = make(map[models.StatusCode][]domain.Address, len(req.Statuses))
		for _, status := range req.Statuses {
			bucket, err := tx.Responses(req.Key, status)
			if err != nil {
				return storeErr(err, "responses")
			}
			view.Responses[status] = bucket.Reporters
		}
		return nil
	})
	return view, err
}
