package types

import "strings"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SameCoordinates treats two missing locations as equal.
func SameCoordinates(a, b *Coordinates) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type OrderAddress struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Pincode   string   `json:"pincode"`
	Landmark  string   `json:"landmark,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinates returns nil until the address has been geocoded.
func (a OrderAddress) Coordinates() *Coordinates {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *a.Latitude, Longitude: *a.Longitude}
}

func (a OrderAddress) HasCityAndPincode() bool {
	return strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Pincode) != ""
}

// AddressPatch is a partial update sent to the address service.
type AddressPatch struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Landmark  *string  `json:"landmark,omitempty"`
}
