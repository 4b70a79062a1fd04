// internal/models/flight.go
package models

import "time"

// Flight is a row in the flight inventory.
type Flight struct {
	FlightID      string    `json:"flightId" db:"flight_id"`
	Airline       string    `json:"airline" db:"airline"`
	FlightNumber  string    `json:"flightNumber" db:"flight_number"`
	Origin        string    `json:"origin" db:"origin"`
	Destination   string    `json:"destination" db:"destination"`
	DepartureTime time.Time `json:"departureTime" db:"departure_time"`
	ArrivalTime   time.Time `json:"arrivalTime" db:"arrival_time"`
	Price         float64   `json:"price" db:"price"`
	Currency      string    `json:"currency" db:"currency"`
	SeatsLeft     int       `json:"seatsLeft" db:"seats_left"`
}

// Airport is an airport directory entry.
type Airport struct {
	Code    string `json:"code" db:"code"`
	Name    string `json:"name" db:"name"`
	City    string `json:"city" db:"city"`
	Country string `json:"country" db:"country"`
}

// FareStats are aggregate price figures for a route.
type FareStats struct {
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	MinPrice    float64 `json:"minPrice"`
	MaxPrice    float64 `json:"maxPrice"`
	AvgPrice    float64 `json:"avgPrice"`
	FlightCount int     `json:"flightCount"`
}

// Booking is a confirmed reservation record.
type Booking struct {
	BookingRef string    `json:"bookingRef" db:"booking_ref"`
	SessionID  string    `json:"sessionId" db:"session_id"`
	FlightID   string    `json:"flightId" db:"flight_id"`
	Passengers int       `json:"passengers" db:"passengers"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)
