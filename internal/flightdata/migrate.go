// internal/flightdata/migrate.go
package flightdata

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS airports (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		country TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		flight_id TEXT PRIMARY KEY,
		airline TEXT NOT NULL,
		flight_number TEXT NOT NULL,
		origin TEXT NOT NULL REFERENCES airports(code),
		destination TEXT NOT NULL REFERENCES airports(code),
		departure_time TIMESTAMPTZ NOT NULL,
		arrival_time TIMESTAMPTZ NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		seats_left INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flights_route ON flights (origin, destination)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_ref TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		flight_id TEXT NOT NULL REFERENCES flights(flight_id),
		passengers INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS complaints (
		case_number TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		summary TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the inventory tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
