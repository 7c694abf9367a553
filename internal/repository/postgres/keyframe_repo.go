package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xela07ax/afr-platform/internal/domain"
)

type KeyframeRepo struct {
	db *sql.DB
}

func NewKeyframeRepo(db *sql.DB) *KeyframeRepo {
	return &KeyframeRepo{db: db}
}

// Insert пишет кифрейм и возвращает его id.
func (r *KeyframeRepo) Insert(ctx context.Context, runID string, tms int64, kind string, data json.RawMessage) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`insert into keyframes(run_id, t_ms, kind, data) values($1, $2, $3, $4) returning id`,
		runID, tms, kind, []byte(data),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to insert keyframe: %w", err)
	}
	return id, nil
}

// ListByRun отдает кифреймы рана по возрастанию времени.
func (r *KeyframeRepo) ListByRun(ctx context.Context, runID string) ([]domain.Keyframe, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, t_ms, kind, data from keyframes where run_id = $1 order by t_ms asc`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list keyframes: %w", err)
	}
	defer rows.Close()

	frames := []domain.Keyframe{}
	for rows.Next() {
		kf := domain.Keyframe{RunID: runID}
		if err := rows.Scan(&kf.ID, &kf.TMs, &kf.Kind, (*[]byte)(&kf.Data)); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan keyframe: %w", err)
		}
		frames = append(frames, kf)
	}
	return frames, rows.Err()
}

// Get достает содержимое одного кифрейма.
func (r *KeyframeRepo) Get(ctx context.Context, runID string, id int64) (json.RawMessage, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`select data from keyframes where run_id = $1 and id = $2`,
		runID, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("keyframe %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch keyframe: %w", err)
	}
	return data, nil
}
