package handlers

import (
	"context"
	"net/http"
	"voyage-routing-service/internal/api/dto"
	"voyage-routing-service/internal/charterparty"
	"voyage-routing-service/internal/services"
)

// Charter-party analysis of a voyage the service calculates first.
type CharterPartyService interface {
	GoodWeatherDays(ctx context.Context, req services.CalculateVoyageRequest, clause charterparty.GoodWeather) (*charterparty.GoodWeatherResult, error)
	VerifyWarranty(ctx context.Context, req services.CalculateVoyageRequest, w charterparty.Warranty) (*charterparty.WarrantyResult, error)
}

// CharterPartyHandler serves the weather-clause tools. The from-legs and
// off-hire endpoints work on the figures in the request alone.
type CharterPartyHandler struct {
	Service CharterPartyService
}

func (h *CharterPartyHandler) BeaufortScale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.FromBeaufortScale(charterparty.BeaufortScale()))
}

func (h *CharterPartyHandler) GoodWeather(w http.ResponseWriter, r *http.Request) {
	var req dto.GoodWeatherVoyageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.GoodWeatherDays(r.Context(), toCalculateRequest(req.CalculateVoyageRequest), req.ToGoodWeather())
	if err != nil {
		writeDomainError(w, r, "good weather days", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromGoodWeather(res))
}

func (h *CharterPartyHandler) GoodWeatherFromLegs(w http.ResponseWriter, r *http.Request) {
	var req dto.GoodWeatherFromLegsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := charterparty.CountGoodWeatherDays(dto.ToLegs(req.Legs), req.ToGoodWeather())
	if err != nil {
		writeDomainError(w, r, "good weather days from legs", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromGoodWeather(res))
}

func (h *CharterPartyHandler) VerifyWarranty(w http.ResponseWriter, r *http.Request) {
	var req dto.WarrantyVoyageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.VerifyWarranty(r.Context(), toCalculateRequest(req.CalculateVoyageRequest), req.ToWarranty())
	if err != nil {
		writeDomainError(w, r, "verify warranty", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromWarranty(res))
}

func (h *CharterPartyHandler) VerifyWarrantyFromLegs(w http.ResponseWriter, r *http.Request) {
	var req dto.WarrantyFromLegsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := charterparty.VerifyWarranty(dto.ToLegs(req.Legs), req.ToWarranty())
	if err != nil {
		writeDomainError(w, r, "verify warranty from legs", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromWarranty(res))
}

// OffHire classifies the intervals of an engine log.
func (h *CharterPartyHandler) OffHire(w http.ResponseWriter, r *http.Request) {
	var req dto.OffHireRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := charterparty.DetectOffHire(req.ToEntries(), req.ToRules())
	if err != nil {
		writeDomainError(w, r, "off-hire", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromOffHire(res))
}
