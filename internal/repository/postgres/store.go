package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/afr-platform/internal/infra"
)

// Open создает общий пул соединений для всех репозиториев хранилища событий.
func Open(cfg infra.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// schema — идемпотентная инициализация хранилища: ран, его события и кифреймы.
// Индексы (run_id, t_ms) обслуживают основной паттерн чтения —
// «все события рана по возрастанию времени».
var schema = []string{
	`create table if not exists runs (
		id uuid primary key,
		created_at timestamptz not null default now(),
		url text,
		meta jsonb default '{}'::jsonb
	)`,
	`create index if not exists idx_runs_created_at on runs(created_at desc)`,
	`create table if not exists events (
		id bigserial primary key,
		run_id uuid not null references runs(id) on delete cascade,
		t_ms bigint not null,
		kind text not null,
		payload jsonb not null
	)`,
	`create index if not exists events_run_time on events(run_id, t_ms)`,
	`create table if not exists keyframes (
		id bigserial primary key,
		run_id uuid not null references runs(id) on delete cascade,
		t_ms bigint not null,
		kind text not null,
		blob_url text,
		data jsonb
	)`,
	`create index if not exists keyframes_run_time on keyframes(run_id, t_ms)`,
}

// InitSchema накатывает схему при старте сервиса. Повторный вызов безопасен.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: schema init failed: %w", err)
		}
	}
	return nil
}
