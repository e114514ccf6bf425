// Package clickhouse stores historical shipment records and rating results.
// The shipment_history table is the columnar source bulk evaluation reads
// from; rating_results holds the write-back of computed breakdowns so
// reconciliation reports can be rebuilt without re-rating.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"parcel-cost/internal/engine"
	"parcel-cost/internal/parcel"
	"parcel-cost/pkg/platform"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns the development defaults, overridable via env.
func DefaultConfig() *Config {
	return &Config{
		Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database: platform.GetEnv("CLICKHOUSE_DATABASE", "parcelcost"),
		Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		Debug:    platform.GetEnvBool("CLICKHOUSE_DEBUG", false),
	}
}

// Store provides access to the shipment history warehouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a native-protocol connection.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 300,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// HistoryRow is one historical shipment pulled from the warehouse, paired
// with the amount its invoice actually carried.
type HistoryRow struct {
	TrackingID string
	Shipment   parcel.Shipment
	Invoiced   decimal.Decimal
}

// FetchShipments pulls historical shipments for one carrier and ship-date
// range, ordered by ship date then tracking id so reruns see the same row
// order.
func (s *Store) FetchShipments(ctx context.Context, carrierName string, from, to time.Time, limit int) ([]HistoryRow, error) {
	query := `
		SELECT tracking_id, length_in, width_in, height_in, weight_lbs,
		       destination_zip, destination_region, origin_site, ship_date,
		       invoiced_total
		FROM shipment_history
		WHERE carrier = ? AND ship_date >= ? AND ship_date <= ?
		ORDER BY ship_date, tracking_id
		LIMIT ?
	`
	rows, err := s.conn.Query(ctx, query, carrierName, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipment history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var (
			r      HistoryRow
			origin string
		)
		if err := rows.Scan(
			&r.TrackingID,
			&r.Shipment.LengthIn, &r.Shipment.WidthIn, &r.Shipment.HeightIn,
			&r.Shipment.WeightLbs,
			&r.Shipment.DestinationZip, &r.Shipment.DestinationRegion,
			&origin, &r.Shipment.ShipDate,
			&r.Invoiced,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shipment row: %w", err)
		}
		r.Shipment.Origin = parcel.OriginSite(origin)
		out = append(out, r)
	}
	return out, rows.Err()
}

// WriteResults batch-inserts computed breakdowns for one run. Failed rows
// are recorded with their error code text and zero amounts, so the run's
// coverage is visible in the warehouse.
func (s *Store) WriteResults(ctx context.Context, runID uuid.UUID, carrierName string, rows []HistoryRow, results []engine.RowResult) error {
	if len(rows) != len(results) {
		return fmt.Errorf("rows/results length mismatch: %d vs %d", len(rows), len(results))
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO rating_results (
			run_id, carrier, tracking_id, zone, billable_weight_lbs,
			uses_dim_weight, base_charge, subtotal, fuel_charge, total,
			invoiced_total, error, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now().UTC()
	for i, row := range rows {
		res := results[i]
		if res.Err != nil {
			if err := batch.Append(
				runID, carrierName, row.TrackingID, int32(0), 0.0,
				uint8(0), decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero,
				row.Invoiced, res.Err.Error(), now,
			); err != nil {
				return fmt.Errorf("failed to append to batch: %w", err)
			}
			continue
		}
		b := res.Breakdown
		if err := batch.Append(
			runID, carrierName, row.TrackingID, int32(b.Zone), b.BillableWeightLbs,
			boolToUInt8(b.UsesDimWeight), b.BaseCharge, b.Subtotal, b.FuelCharge, b.Total,
			row.Invoiced, "", now,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return batch.Send()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
