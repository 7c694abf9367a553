package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xela07ax/afr-platform/internal/domain"
)

type RunRepo struct {
	db *sql.DB
}

// NewRunRepo создает новый экземпляр репозитория
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *RunRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create регистрирует новый ран. Вызывается при первом батче сессии,
// когда клиент еще не знает своего runId.
func (r *RunRepo) Create(ctx context.Context, id, url string) error {
	meta, _ := json.Marshal(map[string]interface{}{})
	_, err := r.db.ExecContext(ctx,
		`insert into runs(id, url, meta) values($1, nullif($2, ''), $3)`,
		id, url, meta,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create run: %w", err)
	}
	return nil
}

// Get возвращает ран по id, domain.ErrNotFound — если его нет.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.Run, error) {
	var (
		run domain.Run
		url sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`select id, created_at, url, meta from runs where id = $1`, id,
	).Scan(&run.ID, &run.CreatedAt, &url, &run.Meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch run: %w", err)
	}
	run.URL = url.String
	return &run, nil
}

// List отдает раны в порядке убывания created_at.
func (r *RunRepo) List(ctx context.Context, limit, offset int) ([]*domain.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, created_at, url from runs order by created_at desc limit $1 offset $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*domain.Run{}
	for rows.Next() {
		var (
			run domain.Run
			url sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.CreatedAt, &url); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan run: %w", err)
		}
		run.URL = url.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// FindLastKnownGood ищет самый свежий предыдущий ран с тем же URL
// (созданный раньше текущего) и отдает его вместе с агрегатами активности.
// Это простой lookup для подбора baseline, не часть алгоритмического ядра.
func (r *RunRepo) FindLastKnownGood(ctx context.Context, current *domain.Run) (*domain.RunStats, error) {
	var (
		stats domain.RunStats
		url   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		select r.id, r.created_at, r.url,
		       count(e.id) as event_count,
		       count(e.id) filter (where e.kind = 'click') as click_count,
		       count(e.id) filter (where e.payload->>'llm' = 'true') as llm_count
		from runs r
		left join events e on r.id = e.run_id
		where r.url = $1
		  and r.created_at < $2
		  and r.id != $3
		group by r.id, r.created_at, r.url
		order by r.created_at desc
		limit 1`,
		current.URL, current.CreatedAt, current.ID,
	).Scan(&stats.ID, &stats.CreatedAt, &url, &stats.EventCount, &stats.ClickCount, &stats.LLMCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no prior run for url %q: %w", current.URL, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: last-known-good lookup failed: %w", err)
	}
	stats.URL = url.String
	return &stats, nil
}
