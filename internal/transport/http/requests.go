package httptransport

import (
	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// FlightBody names a flight in a request body.
type FlightBody struct {
	Airline   string `json:"airline"`
	Flight    string `json:"flight"`
	Timestamp int64  `json:"timestamp"`
}

func (b FlightBody) ref() (domain.FlightRef, error) {
	airline, err := domain.ParseAddress(b.Airline)
	if err != nil {
		return domain.FlightRef{}, err
	}
	ref := domain.FlightRef{Airline: airline, Code: b.Flight, Timestamp: b.Timestamp}
	if err := ref.Validate(); err != nil {
		return domain.FlightRef{}, err
	}
	return ref, nil
}

// FundRequest deposits stake for Member, which defaults to the caller.
type FundRequest struct {
	Member string        `json:"member,omitempty"`
	Stake  domain.Amount `json:"stake"`
}

type RegisterFlightRequest struct {
	Code      string `json:"code"`
	Timestamp int64  `json:"timestamp"`
}

type BuyRequest struct {
	FlightBody
	Amount domain.Amount `json:"amount"`
}

type RegisterOracleRequest struct {
	Fee domain.Amount `json:"fee"`
}

type RequestConfirmationRequest struct {
	FlightBody
}

type SubmitResponseRequest struct {
	FlightBody
	Index  *uint8 `json:"index"`
	Status *uint8 `json:"status"`
}

func (r SubmitResponseRequest) validate() error {
	if r.Index == nil {
		return dErrors.New(dErrors.CodeBadRequest, "index is required")
	}
	if r.Status == nil {
		return dErrors.New(dErrors.CodeBadRequest, "status is required")
	}
	return nil
}

type OperationalRequest struct {
	Operational *bool `json:"operational"`
}

type CountsResponse struct {
	Funded  int `json:"funded"`
	Flights int `json:"flights"`
}

type BalanceResponse struct {
	Passenger domain.Address `json:"passenger"`
	Balance   domain.Amount  `json:"balance"`
}

type IndexesResponse struct {
	Reporter domain.Address                 `json:"reporter"`
	Indexes  [models.IndexesPerOracle]uint8 `json:"indexes"`
}

type ClientsResponse struct {
	Clients []domain.Address `json:"clients"`
}
