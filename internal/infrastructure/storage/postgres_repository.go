// Package storage persists completed analyses into Postgres for history
// queries. Persistence is optional: a repository built without a database
// degrades to a no-op so the pipeline never depends on storage.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

// PostgresRepository stores analysis records in the analyses table.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.AnalysisRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation. A nil db is allowed
// and turns every method into a no-op.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveAnalysis inserts one completed analysis. Entities, features and the
// advisory outcome are stored as JSON documents.
func (r *PostgresRepository) SaveAnalysis(ctx context.Context, analysis domain.Analysis) error {
	if r.db == nil {
		return nil
	}

	entities, err := json.Marshal(analysis.Entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	features, err := json.Marshal(analysis.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	var advisory []byte
	if analysis.Advisory != nil {
		advisory, err = json.Marshal(analysis.Advisory)
		if err != nil {
			return fmt.Errorf("encode advisory: %w", err)
		}
	}

	query, args, err := r.builder.
		Insert("analyses").
		Columns(
			"id", "input_text", "entities", "features",
			"risk_score", "risk_tier", "risk_probability", "model_mode",
			"advisory", "processing_ms", "created_at",
		).
		Values(
			analysis.ID,
			analysis.InputText,
			entities,
			features,
			analysis.Risk.Score,
			string(analysis.Risk.Tier),
			analysis.Risk.Probability,
			string(analysis.Risk.ModelMode),
			nullableJSON(advisory),
			analysis.ProcessingTime.Milliseconds(),
			analysis.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns the newest analyses, newest first.
func (r *PostgresRepository) RecentAnalyses(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.builder.
		Select(
			"id", "input_text", "entities", "features",
			"risk_score", "risk_tier", "risk_probability", "model_mode",
			"advisory", "processing_ms", "created_at",
		).
		From("analyses").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []domain.Analysis
	for rows.Next() {
		var (
			analysis     domain.Analysis
			entities     []byte
			features     []byte
			advisory     sql.NullString
			processingMS int64
		)
		if err := rows.Scan(
			&analysis.ID,
			&analysis.InputText,
			&entities,
			&features,
			&analysis.Risk.Score,
			&analysis.Risk.Tier,
			&analysis.Risk.Probability,
			&analysis.Risk.ModelMode,
			&advisory,
			&processingMS,
			&analysis.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}

		if err := json.Unmarshal(entities, &analysis.Entities); err != nil {
			return nil, fmt.Errorf("decode entities: %w", err)
		}
		if err := json.Unmarshal(features, &analysis.Features); err != nil {
			return nil, fmt.Errorf("decode features: %w", err)
		}
		if advisory.Valid && advisory.String != "" {
			var outcome domain.AdvisoryOutcome
			if err := json.Unmarshal([]byte(advisory.String), &outcome); err != nil {
				return nil, fmt.Errorf("decode advisory: %w", err)
			}
			analysis.Advisory = &outcome
		}
		analysis.ProcessingTime = time.Duration(processingMS) * time.Millisecond

		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return analyses, nil
}

// nullableJSON keeps a skipped advisory as SQL NULL instead of an empty
// document, preserving the skip-vs-failure distinction in storage.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
