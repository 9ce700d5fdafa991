package jwttoken

import (
	"flightsurety/internal/platform/middleware"
	"flightsurety/pkg/domain"
)

// ToMiddlewareClaims narrows validated claims to what the auth middleware
// puts on the request context. ValidateToken has already checked both
// addresses.
func ToMiddlewareClaims(claims *Claims) *middleware.JWTClaims {
	caller, _ := domain.ParseAddress(claims.Subject)
	client, _ := domain.ParseAddress(claims.ClientID)
	return &middleware.JWTClaims{
		Caller:   caller,
		ClientID: client,
		JTI:      claims.ID,
	}
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
