package handlers

import (
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/shopspring/decimal"
)

type SelectAddressRequest struct {
	AddressID string `json:"address_id"`
}

type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Landmark  *string  `json:"landmark,omitempty"`
}

func (r LocationRequest) coordinates() (types.Coordinates, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return types.Coordinates{}, false
	}
	lat, lng := *r.Latitude, *r.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return types.Coordinates{}, false
	}
	return types.Coordinates{Latitude: lat, Longitude: lng}, true
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// TipRequest sets either a suggested amount or a custom one.
type TipRequest struct {
	Preset *decimal.Decimal `json:"preset,omitempty"`
	Custom *decimal.Decimal `json:"custom,omitempty"`
}

type GiftPackagingRequest struct {
	Enabled bool `json:"enabled"`
}

type GSTINRequest struct {
	GSTIN string `json:"gstin"`
}

type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
