// Package postgres reads carrier invoice lines from the billing warehouse.
// Reconciliation joins these against engine-computed totals; this package
// never writes.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"parcel-cost/pkg/platform"
)

// InvoiceLine is one invoiced shipment amount keyed by tracking id.
type InvoiceLine struct {
	TrackingID  string
	Carrier     string
	InvoiceDate time.Time
	Total       decimal.Decimal
}

// Store reads invoice lines from Postgres.
type Store struct {
	db *sql.DB
}

// DefaultDSN builds the connection string from env with local defaults.
func DefaultDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		platform.GetEnv("INVOICE_DB_HOST", "localhost"),
		platform.GetEnvInt("INVOICE_DB_PORT", 5432),
		platform.GetEnv("INVOICE_DB_USER", "parcelcost"),
		platform.GetEnv("INVOICE_DB_PASSWORD", ""),
		platform.GetEnv("INVOICE_DB_NAME", "billing"),
		platform.GetEnv("INVOICE_DB_SSLMODE", "disable"),
	)
}

// NewStore opens the invoice database.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping invoice db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchInvoiceLines returns the invoiced totals for one carrier and invoice
// date range, ordered by tracking id.
func (s *Store) FetchInvoiceLines(ctx context.Context, carrierName string, from, to time.Time) ([]InvoiceLine, error) {
	const query = `
		SELECT tracking_id, carrier, invoice_date, total
		FROM carrier_invoice_lines
		WHERE carrier = $1 AND invoice_date >= $2 AND invoice_date <= $3
		ORDER BY tracking_id
	`
	rows, err := s.db.QueryContext(ctx, query, carrierName, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var (
			line  InvoiceLine
			total string
		)
		if err := rows.Scan(&line.TrackingID, &line.Carrier, &line.InvoiceDate, &total); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		line.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invoice line %s has bad total %q: %w", line.TrackingID, total, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// TotalsByTracking returns the invoice lines as a lookup map. Duplicate
// tracking ids keep the latest invoice date; carriers occasionally rebill a
// shipment on a correction invoice.
func TotalsByTracking(lines []InvoiceLine) map[string]InvoiceLine {
	byID := make(map[string]InvoiceLine, len(lines))
	for _, line := range lines {
		if prev, ok := byID[line.TrackingID]; ok && prev.InvoiceDate.After(line.InvoiceDate) {
			continue
		}
		byID[line.TrackingID] = line
	}
	return byID
}
