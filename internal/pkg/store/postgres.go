package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

const insertRecordSQL = `
	INSERT INTO deposit_rates (
		bank, nkb, full_name, group_1, product,
		captured_at, currency, term_months, rate, source_url
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Postgres appends records to the deposit_rates table.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// Append inserts all records in one transaction and returns the table name.
func (s *Postgres) Append(ctx context.Context, records []model.CanonicalRecord) (string, error) {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertRecordSQL,
			rec.BankID,
			rec.BankCode,
			rec.BankFullName,
			string(rec.OwnershipGroup),
			rec.ProductName,
			rec.CapturedAt,
			string(rec.Currency),
			rec.TermMonths,
			rec.RatePercent,
			rec.SourceURL,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("insert record: %w", err))
		}
	}
	if err := results.Close(); err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("close batch: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("commit: %w", err))
	}

	s.logger.Info("inserted records", zap.Int("rows", len(records)))
	return "deposit_rates", nil
}
