package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/market"
	"github.com/novaev/expansion/pkg/telemetry"

	_ "modernc.org/sqlite"
)

// Data is the reference data every surface computes from.
type Data struct {
	Markets   []market.Record
	Telemetry telemetry.Table
}

// Reference returns the built-in tables.
func Reference() Data {
	return Data{Markets: market.Reference(), Telemetry: telemetry.Reference()}
}

// Load returns the built-in tables when path is empty, otherwise the tables
// stored in the SQLite file at path. The file is opened read-only.
func Load(ctx context.Context, path string) (Data, error) {
	if path == "" {
		return Reference(), nil
	}
	db, err := Open(path)
	if err != nil {
		return Data{}, err
	}
	defer db.Close()
	return db.Load(ctx)
}

type DB struct {
	sql *sql.DB
}

// Open opens an existing dataset file in read-only mode.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}
	dsn := "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Load reads the markets table and, when present, the telemetry table.
// A file without a telemetry table keeps the built-in telemetry.
func (d *DB) Load(ctx context.Context) (Data, error) {
	markets, err := d.Markets(ctx)
	if err != nil {
		return Data{}, err
	}

	tel := telemetry.Reference()
	hasTelemetry, err := d.hasTable(ctx, "telemetry")
	if err != nil {
		return Data{}, err
	}
	if hasTelemetry {
		if tel, err = d.Telemetry(ctx); err != nil {
			return Data{}, err
		}
	} else {
		utils.Log.Debug("[dataset] no telemetry table, using built-in telemetry")
	}

	return Data{Markets: markets, Telemetry: tel}, nil
}

// Markets reads every market row in insertion order and validates the table.
func (d *DB) Markets(ctx context.Context) ([]market.Record, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT country, ev_adoption, tariffs, charging_stations, china_sentiment, market_size FROM markets ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading markets: %w", err)
	}
	defer rows.Close()

	var out []market.Record
	for rows.Next() {
		var r market.Record
		if err := rows.Scan(&r.Country, &r.EVAdoption, &r.Tariffs, &r.ChargingStations, &r.ChinaSentiment, &r.MarketSize); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("dataset has no markets")
	}
	if err := market.ValidateTable(out); err != nil {
		return nil, fmt.Errorf("invalid markets table: %w", err)
	}
	utils.Log.Debugf("[dataset] loaded %d markets", len(out))
	return out, nil
}

// Telemetry reads the long-format telemetry table (region, metric, week, value).
// Regions keep the order of their first row.
func (d *DB) Telemetry(ctx context.Context) (telemetry.Table, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT region, metric, week, value FROM telemetry ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	defer rows.Close()

	var table telemetry.Table
	index := make(map[string]int)
	seen := make(map[string]struct{})
	for rows.Next() {
		var (
			region, metricName string
			week               int
			value              float64
		)
		if err := rows.Scan(&region, &metricName, &week, &value); err != nil {
			return nil, err
		}
		metric, err := telemetry.ParseMetric(metricName)
		if err != nil {
			return nil, fmt.Errorf("telemetry row %s/%s: %w", region, metricName, err)
		}
		if week < 1 || week > telemetry.Weeks {
			return nil, fmt.Errorf("telemetry row %s/%s: week %d out of range 1-%d", region, metricName, week, telemetry.Weeks)
		}

		i, ok := index[region]
		if !ok {
			i = len(table)
			index[region] = i
			table = append(table, telemetry.RegionSeries{Region: region, Metrics: make(map[telemetry.Metric][]float64)})
		}
		key := fmt.Sprintf("%s/%s/%d", region, metric.Key(), week)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("telemetry row %s: duplicate week", key)
		}
		seen[key] = struct{}{}

		series := table[i].Metrics[metric]
		if series == nil {
			series = make([]float64, telemetry.Weeks)
		}
		series[week-1] = value
		table[i].Metrics[metric] = series
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, errors.New("dataset has an empty telemetry table")
	}
	// Every series must have each week exactly once.
	if want := len(table) * len(telemetry.AllMetrics) * telemetry.Weeks; len(seen) != want {
		return nil, fmt.Errorf("invalid telemetry table: expected %d observations, got %d", want, len(seen))
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry table: %w", err)
	}
	return table, nil
}

func (d *DB) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
