// parcelcost - expected shipping cost engine
//
// Usage:
//   parcelcost estimate --carrier maersk-lcl --length 12 --width 10 --height 8 --weight 3 --zip 75023 --origin port-houston
//   parcelcost bulk --carrier lonestar --from 2025-01-01 --to 2025-06-30
//   parcelcost reconcile --carrier lonestar --from 2025-01-01 --to 2025-06-30
//   parcelcost carriers
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"parcel-cost/db/clickhouse"
	"parcel-cost/db/postgres"
	"parcel-cost/internal/carrier"
	"parcel-cost/internal/engine"
	"parcel-cost/internal/parcel"
	"parcel-cost/internal/reconcile"
	"parcel-cost/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := platform.InitLogger()

	app := &cli.App{
		Name:    "parcelcost",
		Usage:   "Expected shipping cost engine - rate shipments and reconcile carrier invoices",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Carrier config YAML (overrides the built-in catalogue)",
				EnvVars: []string{"PARCELCOST_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			estimateCommand(),
			bulkCommand(logger),
			reconcileCommand(logger),
			carriersCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadCarrier resolves the carrier config: an explicit YAML file wins,
// otherwise the built-in catalogue.
func loadCarrier(c *cli.Context) (*carrier.Config, error) {
	if path := c.String("config"); path != "" {
		return carrier.LoadFile(path)
	}
	return carrier.Builtin(c.String("carrier"))
}

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Rate a single shipment and print the itemized breakdown",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "carrier", Aliases: []string{"c"}, Value: "lonestar", Usage: "Carrier name"},
			&cli.Float64Flag{Name: "length", Required: true, Usage: "Length in inches"},
			&cli.Float64Flag{Name: "width", Required: true, Usage: "Width in inches"},
			&cli.Float64Flag{Name: "height", Required: true, Usage: "Height in inches"},
			&cli.Float64Flag{Name: "weight", Required: true, Usage: "Actual weight in pounds"},
			&cli.StringFlag{Name: "zip", Required: true, Usage: "Destination zip (5 digits)"},
			&cli.StringFlag{Name: "region", Usage: "Destination state, display only"},
			&cli.StringFlag{Name: "origin", Required: true, Usage: "Origin site"},
			&cli.StringFlag{Name: "date", Usage: "Ship date (2006-01-02), defaults to today"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json)"},
		},
		Action: runEstimate,
	}
}

func runEstimate(c *cli.Context) error {
	cfg, err := loadCarrier(c)
	if err != nil {
		return err
	}

	shipDate := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.String("date"); raw != "" {
		shipDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("bad ship date %q: %w", raw, err)
		}
	}

	s := parcel.Shipment{
		LengthIn:          c.Float64("length"),
		WidthIn:           c.Float64("width"),
		HeightIn:          c.Float64("height"),
		WeightLbs:         c.Float64("weight"),
		DestinationZip:    c.String("zip"),
		DestinationRegion: c.String("region"),
		Origin:            parcel.OriginSite(c.String("origin")),
		ShipDate:          shipDate,
	}

	// The stated max weight is advisory: the engine rates through the
	// standard path either way, only the operator gets warned.
	if cfg.MaxWeightLbs > 0 && s.WeightLbs > cfg.MaxWeightLbs {
		fmt.Fprintf(os.Stderr, "⚠️  weight %.1f lbs exceeds %s stated max of %.0f lbs\n",
			s.WeightLbs, cfg.Name, cfg.MaxWeightLbs)
	}

	b, err := engine.EvaluateOne(s, cfg)
	if err != nil {
		return err
	}

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	printBreakdown(b)
	return nil
}

func printBreakdown(b *engine.Breakdown) {
	fmt.Printf("Carrier:         %s\n", b.Carrier)
	fmt.Printf("Zone:            %d", b.Zone)
	if b.Area != "" {
		fmt.Printf(" (%s)", b.Area)
	}
	fmt.Println()
	fmt.Printf("Billable weight: %.2f lbs", b.BillableWeightLbs)
	if b.UsesDimWeight {
		fmt.Printf(" (dimensional, %.2f lbs)", b.DimWeightLbs)
	}
	fmt.Println()
	fmt.Println("---------------------------------")
	fmt.Printf("%-22s %10s\n", "Base charge", "$"+b.BaseCharge.StringFixed(2))
	for _, item := range b.Surcharges {
		fmt.Printf("%-22s %10s\n", item.RuleID, "$"+item.Amount.StringFixed(2))
	}
	fmt.Printf("%-22s %10s\n", "Subtotal", "$"+b.Subtotal.StringFixed(2))
	fmt.Printf("%-22s %10s\n", "Fuel", "$"+b.FuelCharge.StringFixed(2))
	fmt.Println("---------------------------------")
	fmt.Printf("%-22s %10s\n", "Total", "$"+b.Total.StringFixed(2))
}

// =============================================================================
// BULK COMMAND
// =============================================================================

func bulkCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "bulk",
		Usage: "Rate historical shipments from the warehouse and write results back",
		Flags: append(warehouseFlags(),
			&cli.StringFlag{Name: "carrier", Aliases: []string{"c"}, Required: true, Usage: "Carrier name"},
			&cli.StringFlag{Name: "from", Required: true, Usage: "Ship date range start (2006-01-02)"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "Ship date range end (2006-01-02)"},
			&cli.IntFlag{Name: "limit", Value: 5_000_000, Usage: "Row limit"},
		),
		Action: func(c *cli.Context) error { return runBulk(c, logger) },
	}
}

func runBulk(c *cli.Context, logger *slog.Logger) error {
	ctx := context.Background()

	cfg, err := loadCarrier(c)
	if err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}

	store, err := openWarehouse(c)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.FetchShipments(ctx, cfg.Name, from, to, c.Int("limit"))
	if err != nil {
		return err
	}
	logger.Info("fetched shipment history", "carrier", cfg.Name, "rows", len(rows))

	shipments := make([]parcel.Shipment, len(rows))
	for i, row := range rows {
		shipments[i] = row.Shipment
	}
	results := engine.EvaluateMany(shipments, cfg)

	runID := uuid.New()
	if err := store.WriteResults(ctx, runID, cfg.Name, rows, results); err != nil {
		return err
	}

	rated, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		} else {
			rated++
		}
	}
	logger.Info("bulk rating complete", "run_id", runID, "rated", rated, "failed", failed)
	return nil
}

// =============================================================================
// RECONCILE COMMAND
// =============================================================================

func reconcileCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Compare computed totals against carrier-invoiced amounts",
		Flags: append(warehouseFlags(),
			&cli.StringFlag{Name: "carrier", Aliases: []string{"c"}, Required: true, Usage: "Carrier name"},
			&cli.StringFlag{Name: "from", Required: true, Usage: "Ship date range start (2006-01-02)"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "Ship date range end (2006-01-02)"},
			&cli.IntFlag{Name: "limit", Value: 5_000_000, Usage: "Row limit"},
			&cli.StringFlag{Name: "tolerance-abs", Value: "0.05", Usage: "Absolute match tolerance, dollars"},
			&cli.StringFlag{Name: "tolerance-rel", Value: "0.005", Usage: "Relative match tolerance, fraction"},
			&cli.BoolFlag{Name: "invoice-db", Usage: "Prefer invoiced totals from the Postgres billing warehouse"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json)"},
		),
		Action: func(c *cli.Context) error { return runReconcile(c, logger) },
	}
}

func runReconcile(c *cli.Context, logger *slog.Logger) error {
	ctx := context.Background()

	cfg, err := loadCarrier(c)
	if err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	tol, err := parseTolerance(c)
	if err != nil {
		return err
	}

	store, err := openWarehouse(c)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.FetchShipments(ctx, cfg.Name, from, to, c.Int("limit"))
	if err != nil {
		return err
	}

	// Invoiced totals come with the history rows; the billing warehouse
	// overrides them when requested, since correction invoices land there
	// before the history sync picks them up.
	invoiced := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		invoiced[row.TrackingID] = row.Invoiced
	}
	if c.Bool("invoice-db") {
		invoices, err := postgres.NewStore(postgres.DefaultDSN())
		if err != nil {
			return err
		}
		defer invoices.Close()
		lines, err := invoices.FetchInvoiceLines(ctx, cfg.Name, from, to)
		if err != nil {
			return err
		}
		for id, line := range postgres.TotalsByTracking(lines) {
			invoiced[id] = line.Total
		}
	}

	shipments := make([]parcel.Shipment, len(rows))
	for i, row := range rows {
		shipments[i] = row.Shipment
	}
	results := engine.EvaluateMany(shipments, cfg)

	pairs := make([]reconcile.Pair, len(rows))
	for i, row := range rows {
		pairs[i] = reconcile.Pair{
			TrackingID: row.TrackingID,
			Result:     results[i],
			Invoiced:   invoiced[row.TrackingID],
		}
	}
	report := reconcile.Reconcile(pairs, tol)

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Reconciliation run %s (%s, %s..%s)\n", report.RunID, cfg.Name,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("  matched:      %d\n", report.Matched)
	fmt.Printf("  overcharged:  %d\n", report.Overcharged)
	fmt.Printf("  undercharged: %d\n", report.Undercharged)
	fmt.Printf("  errored:      %d\n", report.Errored)
	if report.Discounts.Samples > 0 {
		fmt.Printf("  discount avg: %s  mode: %s  (n=%d)\n",
			report.Discounts.Average, report.Discounts.Mode, report.Discounts.Samples)
	}
	logger.Info("reconcile complete", "run_id", report.RunID, "rows", len(report.Rows))
	return nil
}

// =============================================================================
// CARRIERS COMMAND
// =============================================================================

func carriersCommand() *cli.Command {
	return &cli.Command{
		Name:  "carriers",
		Usage: "List built-in carrier configs",
		Action: func(c *cli.Context) error {
			for _, name := range carrier.BuiltinNames() {
				cfg, err := carrier.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-12s dim %g/%g  fuel %s (%s)  rules %d\n",
					cfg.Name, cfg.DimFactor, cfg.DimThreshold,
					cfg.FuelRate, cfg.FuelApplication, len(cfg.Rules))
			}
			return nil
		},
	}
}

// =============================================================================
// SHARED FLAG HELPERS
// =============================================================================

func warehouseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "clickhouse-host", Value: "localhost", Usage: "ClickHouse host", EnvVars: []string{"CLICKHOUSE_HOST"}},
		&cli.IntFlag{Name: "clickhouse-port", Value: 9000, Usage: "ClickHouse native port", EnvVars: []string{"CLICKHOUSE_PORT"}},
		&cli.StringFlag{Name: "clickhouse-database", Value: "parcelcost", Usage: "ClickHouse database", EnvVars: []string{"CLICKHOUSE_DATABASE"}},
		&cli.StringFlag{Name: "clickhouse-user", Value: "default", Usage: "ClickHouse user", EnvVars: []string{"CLICKHOUSE_USER"}},
		&cli.StringFlag{Name: "clickhouse-password", Value: "", Usage: "ClickHouse password", EnvVars: []string{"CLICKHOUSE_PASSWORD"}},
	}
}

func openWarehouse(c *cli.Context) (*clickhouse.Store, error) {
	return clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
}

func parseRange(c *cli.Context) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", c.String("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad --from date: %w", err)
	}
	to, err := time.Parse("2006-01-02", c.String("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad --to date: %w", err)
	}
	return from, to, nil
}

func parseTolerance(c *cli.Context) (reconcile.Tolerance, error) {
	abs, err := decimal.NewFromString(c.String("tolerance-abs"))
	if err != nil {
		return reconcile.Tolerance{}, fmt.Errorf("bad --tolerance-abs: %w", err)
	}
	rel, err := decimal.NewFromString(c.String("tolerance-rel"))
	if err != nil {
		return reconcile.Tolerance{}, fmt.Errorf("bad --tolerance-rel: %w", err)
	}
	return reconcile.Tolerance{Absolute: abs, Relative: rel}, nil
}
