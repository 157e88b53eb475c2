package repository

import (
	"context"
	"fmt"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	pkgch "PulseGate/pkg/clickhouse"
)

// ClickHouseSignalArchive records triggered candidates for the history
// endpoint. Fire-and-forget from the evaluator's point of view: archive
// failures never gate a notification.
type ClickHouseSignalArchive struct {
	client *pkgch.Client
	table  string
}

// NewClickHouseSignalArchive creates the archive over a ClickHouse client.
func NewClickHouseSignalArchive(client *pkgch.Client, table string) *ClickHouseSignalArchive {
	return &ClickHouseSignalArchive{client: client, table: table}
}

// Schema returns the idempotent DDL for the archive table.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3),
			symbol String,
			mode String,
			bias String,
			price Float64,
			reason String,
			grade String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`, database, table),
	}
}

func (a *ClickHouseSignalArchive) Insert(ctx context.Context, c *models.Candidate, tsMillis int64) error {
	const q = `INSERT INTO %s (ts, symbol, mode, bias, price, reason, grade) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := a.client.DB().ExecContext(ctx, fmt.Sprintf(q, a.table),
		time.UnixMilli(tsMillis).UTC(), c.Symbol, string(c.Mode), string(c.Bias),
		c.Price, string(c.Reason), string(c.Grade))
	if err != nil {
		return fmt.Errorf("signal archive insert: %w", err)
	}
	return nil
}

func (a *ClickHouseSignalArchive) History(ctx context.Context, symbol string, limit int) ([]drepo.ArchivedSignal, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT ts, symbol, mode, bias, price, reason, grade FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?`
	rows, err := a.client.DB().QueryContext(ctx, fmt.Sprintf(q, a.table), symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("signal history query: %w", err)
	}
	defer rows.Close()

	var out []drepo.ArchivedSignal
	for rows.Next() {
		var (
			ts                        time.Time
			sym, mode, bias, rsn, grd string
			price                     float64
		)
		if err := rows.Scan(&ts, &sym, &mode, &bias, &price, &rsn, &grd); err != nil {
			return nil, fmt.Errorf("signal history scan: %w", err)
		}
		out = append(out, drepo.ArchivedSignal{
			TS:     ts.UnixMilli(),
			Symbol: sym,
			Mode:   models.Mode(mode),
			Bias:   models.Lean(bias),
			Price:  price,
			Reason: rsn,
			Grade:  models.Grade(grd),
		})
	}
	return out, rows.Err()
}

// NopSignalArchive is used when ClickHouse is disabled.
type NopSignalArchive struct{}

func (NopSignalArchive) Insert(context.Context, *models.Candidate, int64) error { return nil }
func (NopSignalArchive) History(context.Context, string, int) ([]drepo.ArchivedSignal, error) {
	return nil, nil
}
