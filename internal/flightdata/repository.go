// internal/flightdata/repository.go
package flightdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tripwise/internal/common/errors"
	"tripwise/internal/models"
)

// Repository reads the flight inventory and writes booking and complaint
// records. All inventory reads are plain SQL over lib/pq.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SearchFlights finds flights by route. Origin and destination are IATA codes
// matched case-insensitively. An empty date matches any day.
func (r *Repository) SearchFlights(ctx context.Context, origin, destination, date string, maxResults int) ([]models.Flight, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	query := `
		SELECT flight_id, airline, flight_number, origin, destination,
		       departure_time, arrival_time, price, currency, seats_left
		FROM flights
		WHERE UPPER(origin) = UPPER($1) AND UPPER(destination) = UPPER($2)`
	args := []interface{}{origin, destination}

	if date != "" {
		query += fmt.Sprintf(" AND DATE(departure_time) = $%d", len(args)+1)
		args = append(args, date)
	}
	query += fmt.Sprintf(" ORDER BY price ASC LIMIT $%d", len(args)+1)
	args = append(args, maxResults)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewFlightSearchFailedError(err)
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		var f models.Flight
		if err := rows.Scan(
			&f.FlightID, &f.Airline, &f.FlightNumber, &f.Origin, &f.Destination,
			&f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Currency, &f.SeatsLeft,
		); err != nil {
			return nil, errors.NewFlightSearchFailedError(err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewFlightSearchFailedError(err)
	}
	return flights, nil
}

// GetFlight looks up a single flight by id.
func (r *Repository) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	query := `
		SELECT flight_id, airline, flight_number, origin, destination,
		       departure_time, arrival_time, price, currency, seats_left
		FROM flights
		WHERE flight_id = $1`

	var f models.Flight
	err := r.db.QueryRowContext(ctx, query, flightID).Scan(
		&f.FlightID, &f.Airline, &f.FlightNumber, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Currency, &f.SeatsLeft,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewFlightNotFoundError(flightID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_flight", err)
	}
	return &f, nil
}

// ListAirports returns the airport directory ordered by code.
func (r *Repository) ListAirports(ctx context.Context) ([]models.Airport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, city, country FROM airports ORDER BY code`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_airports", err)
	}
	defer rows.Close()

	var airports []models.Airport
	for rows.Next() {
		var a models.Airport
		if err := rows.Scan(&a.Code, &a.Name, &a.City, &a.Country); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_airports", err)
		}
		airports = append(airports, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_airports", err)
	}
	return airports, nil
}

// GetFareStats aggregates prices, optionally filtered by route endpoints.
func (r *Repository) GetFareStats(ctx context.Context, origin, destination string) (*models.FareStats, error) {
	query := `SELECT COALESCE(MIN(price),0), COALESCE(MAX(price),0), COALESCE(AVG(price),0), COUNT(*) FROM flights`
	var conditions []string
	var args []interface{}

	if origin != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(origin) = UPPER($%d)", len(args)+1))
		args = append(args, origin)
	}
	if destination != "" {
		conditions = append(conditions, fmt.Sprintf("UPPER(destination) = UPPER($%d)", len(args)+1))
		args = append(args, destination)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	stats := &models.FareStats{Origin: strings.ToUpper(origin), Destination: strings.ToUpper(destination)}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.MinPrice, &stats.MaxPrice, &stats.AvgPrice, &stats.FlightCount,
	)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_fare_stats", err)
	}
	return stats, nil
}

// GetSchema describes the inventory tables for the get_schema tool.
func (r *Repository) GetSchema(ctx context.Context) (map[string]interface{}, error) {
	query := `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name IN ('flights', 'airports', 'bookings', 'complaints')
		ORDER BY table_name, ordinal_position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_schema", err)
	}
	defer rows.Close()

	tables := make(map[string][]map[string]string)
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, errors.NewQueryExecutionFailedError("get_schema", err)
		}
		tables[table] = append(tables[table], map[string]string{
			"column": column,
			"type":   dataType,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_schema", err)
	}

	return map[string]interface{}{"tables": tables}, nil
}

// ExecuteQuery runs a caller-provided SELECT and returns rows as maps. The
// read-only guard is enforced by the caller before this point; this method
// still rejects anything that is not a SELECT as a second line of defense.
func (r *Repository) ExecuteQuery(ctx context.Context, query string, args []interface{}) ([]map[string]interface{}, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return nil, errors.NewQueryRejectedError("only SELECT statements are allowed")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("execute_query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("execute_query", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.NewQueryExecutionFailedError("execute_query", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("execute_query", err)
	}
	return results, nil
}

// CreateBooking inserts a confirmed booking record.
func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (booking_ref, session_id, flight_id, passengers, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		booking.BookingRef, booking.SessionID, booking.FlightID,
		booking.Passengers, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		return errors.NewBookingCreateFailedError(err)
	}
	return nil
}

// CreateComplaint inserts an open complaint record.
func (r *Repository) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	query := `
		INSERT INTO complaints (case_number, session_id, category, severity, summary, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		complaint.CaseNumber, complaint.SessionID, complaint.Category,
		complaint.Severity, complaint.Summary, complaint.Status, complaint.CreatedAt,
	)
	if err != nil {
		return errors.NewComplaintCreateFailedError(err)
	}
	return nil
}
