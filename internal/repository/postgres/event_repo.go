package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/afr-platform/internal/domain"
)

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// InsertBatch атомарно пишет батч событий рана: либо весь, либо ничего.
// Вставка собирается в один multi-row INSERT внутри транзакции —
// динамические плейсхолдеры вместо построчных запросов.
func (r *EventRepo) InsertBatch(ctx context.Context, runID string, rows []domain.EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	const numFields = 4
	var sb strings.Builder
	vals := make([]interface{}, 0, len(rows)*numFields)

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		p := i * numFields
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", p+1, p+2, p+3, p+4))
		vals = append(vals, runID, row.TMs, string(row.Kind), []byte(row.Payload))
	}

	query := fmt.Sprintf(
		"insert into events (run_id, t_ms, kind, payload) values %s",
		sb.String(),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin failed: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("postgres: batch insert failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit failed: %w", err)
	}
	return nil
}

// ListByRun возвращает события рана по возрастанию t_ms (тай-брейк — порядок
// вставки, его дает монотонный id). События отдаются как есть: серверные
// аннотации корреляции навешивает вызывающий слой, не хранилище.
func (r *EventRepo) ListByRun(ctx context.Context, runID string, limit, offset int) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, t_ms, kind, payload from events
		 where run_id = $1 order by t_ms asc, id asc limit $2 offset $3`,
		runID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TMs, &e.Kind, (*[]byte)(&e.Payload)); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListFingerprints отдает dom_fp события рана по возрастанию времени,
// уже декодированные в типизированный payload. Вход для свертки диффа.
func (r *EventRepo) ListFingerprints(ctx context.Context, runID string) ([]domain.FingerprintPayload, error) {
	rows, err := r.db.QueryContext(ctx,
		`select payload from events
		 where run_id = $1 and kind = 'dom_fp' order by t_ms asc, id asc`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list fingerprints: %w", err)
	}
	defer rows.Close()

	fps := []domain.FingerprintPayload{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan fingerprint: %w", err)
		}
		var fp domain.FingerprintPayload
		if err := json.Unmarshal(raw, &fp); err != nil {
			// Битый снапшот пропускаем: дифф должен быть тотален
			// над неидеальным вводом.
			continue
		}
		fps = append(fps, fp)
	}
	return fps, rows.Err()
}
