package services

import (
	"context"
	"fmt"
	"voyage-routing-service/internal/charterparty"
	"voyage-routing-service/internal/platform/obs"
)

// GoodWeatherDays simulates the voyage and counts its good-weather days
// under the given clause.
func (s *VoyageService) GoodWeatherDays(
	ctx context.Context,
	req CalculateVoyageRequest,
	clause charterparty.GoodWeather,
) (res *charterparty.GoodWeatherResult, err error) {
	defer obs.Time(ctx, "good_weather_days")(&err)

	if err := clause.Validate(); err != nil {
		return nil, err
	}
	v, err := s.CalculateVoyage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("good weather days: %w", err)
	}
	return charterparty.CountGoodWeatherDays(charterparty.LegsFromVoyage(v), clause)
}

// VerifyWarranty simulates the voyage and checks its good-weather legs
// against the warranted speed and consumption.
func (s *VoyageService) VerifyWarranty(
	ctx context.Context,
	req CalculateVoyageRequest,
	w charterparty.Warranty,
) (res *charterparty.WarrantyResult, err error) {
	defer obs.Time(ctx, "verify_warranty")(&err)

	if err := w.Validate(); err != nil {
		return nil, err
	}
	v, err := s.CalculateVoyage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("verify warranty: %w", err)
	}
	return charterparty.VerifyWarranty(charterparty.LegsFromVoyage(v), w)
}
