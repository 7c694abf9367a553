package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// AnalyticsRepo — тяжелые read-only агрегаты по всему хранилищу.
// Выше по стеку эти запросы прикрыты Redis-кэшем, чтобы не гонять
// full-scan по events на каждый запрос дашборда.
type AnalyticsRepo struct {
	db *sql.DB
}

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// Overview собирает сквозные счетчики и десяток последних ранов.
func (r *AnalyticsRepo) Overview(ctx context.Context) (*domain.Overview, error) {
	o := &domain.Overview{RecentRuns: []domain.RecentRun{}}

	err := r.db.QueryRowContext(ctx, `
		select
			(select count(*) from runs),
			(select count(*) from events),
			(select count(*) from events where payload->>'llm' = 'true'),
			(select count(*) from events where kind = 'click'),
			(select count(*) from events where kind = 'dom_fp')`,
	).Scan(
		&o.Totals.Runs,
		&o.Totals.Events,
		&o.Totals.LLMCalls,
		&o.Totals.Clicks,
		&o.Totals.DomFingerprints,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: overview totals failed: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`select created_at, url from runs order by created_at desc limit 10`)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent runs failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rr  domain.RecentRun
			url sql.NullString
		)
		if err := rows.Scan(&rr.CreatedAt, &url); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan recent run: %w", err)
		}
		rr.URL = url.String
		o.RecentRuns = append(o.RecentRuns, rr)
	}
	return o, rows.Err()
}

// Providers — агрегаты по вендорам модельных API среди LLM-вызовов.
func (r *AnalyticsRepo) Providers(ctx context.Context) ([]domain.ProviderStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		select
			payload->>'provider' as provider,
			count(*) as count,
			coalesce(avg((payload->>'durMs')::int), 0) as avg_duration,
			count(*) filter (where (payload->'res'->>'status')::int >= 200 and (payload->'res'->>'status')::int < 300) as success_count,
			count(*) filter (where (payload->'res'->>'status')::int >= 400) as error_count
		from events
		where payload->>'llm' = 'true' and payload->>'provider' is not null
		group by payload->>'provider'
		order by count desc`)
	if err != nil {
		return nil, fmt.Errorf("postgres: provider stats failed: %w", err)
	}
	defer rows.Close()

	stats := []domain.ProviderStats{}
	for rows.Next() {
		var s domain.ProviderStats
		if err := rows.Scan(&s.Provider, &s.Count, &s.AvgDuration, &s.SuccessCount, &s.ErrorCount); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan provider stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Performance — почасовая нарезка событий за последние 24 часа.
func (r *AnalyticsRepo) Performance(ctx context.Context) ([]domain.PerformanceBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		select
			date_trunc('hour', to_timestamp(t_ms/1000)) as hour,
			count(*) as events,
			coalesce(avg((payload->>'durMs')::int), 0) as avg_duration,
			count(*) filter (where payload->>'llm' = 'true') as llm_calls,
			count(*) filter (where kind = 'click') as clicks
		from events
		where t_ms > extract(epoch from now() - interval '24 hours') * 1000
		group by date_trunc('hour', to_timestamp(t_ms/1000))
		order by hour desc`)
	if err != nil {
		return nil, fmt.Errorf("postgres: performance stats failed: %w", err)
	}
	defer rows.Close()

	buckets := []domain.PerformanceBucket{}
	for rows.Next() {
		var b domain.PerformanceBucket
		if err := rows.Scan(&b.Hour, &b.Events, &b.AvgDuration, &b.LLMCalls, &b.Clicks); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan performance bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Correlations — доля кликов с клиентской/серверной привязкой.
func (r *AnalyticsRepo) Correlations(ctx context.Context) (*domain.CorrelationStats, error) {
	var s domain.CorrelationStats
	err := r.db.QueryRowContext(ctx, `
		select
			count(*) as total_clicks,
			count(*) filter (where payload->>'correlationId' is not null) as correlated_clicks,
			count(*) filter (where payload->'correlationServer' is not null) as server_correlated_clicks
		from events
		where kind = 'click'`,
	).Scan(&s.TotalClicks, &s.CorrelatedClicks, &s.ServerCorrelatedClicks)
	if err != nil {
		return nil, fmt.Errorf("postgres: correlation stats failed: %w", err)
	}
	return &s, nil
}

// Sessions — сводный отчет по последним 20 сессиям с активностью.
func (r *AnalyticsRepo) Sessions(ctx context.Context) ([]domain.SessionReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		select
			r.id as run_id,
			coalesce(r.url, '') as url,
			(max(e.t_ms) - min(e.t_ms)) / 1000.0 / 60.0 as duration_minutes,
			count(e.id) as total_events,
			count(e.id) filter (where e.payload->>'llm' = 'true') as llm_calls,
			count(e.id) filter (where e.kind = 'click') as clicks,
			count(e.id) filter (where e.kind = 'click' and (e.payload->>'correlationId' is not null or e.payload->'correlationServer' is not null)) as correlated_clicks,
			coalesce(avg((e.payload->>'durMs')::int) filter (where e.payload->>'llm' = 'true'), 0) as avg_response_time,
			coalesce(array_agg(distinct e.payload->>'provider') filter (where e.payload->>'provider' is not null), '{}') as providers
		from runs r
		join events e on r.id = e.run_id
		group by r.id, r.url, r.created_at
		order by r.created_at desc
		limit 20`)
	if err != nil {
		return nil, fmt.Errorf("postgres: session report failed: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionReport{}
	for rows.Next() {
		var (
			s                domain.SessionReport
			url              string
			correlatedClicks int64
			providers        []byte
		)
		if err := rows.Scan(&s.RunID, &url, &s.DurationMinutes, &s.TotalEvents,
			&s.LLMCalls, &s.Clicks, &correlatedClicks, &s.AvgResponseTime, &providers); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan session report: %w", err)
		}
		if url == "" {
			url = "Unknown"
		}
		s.URL = url
		s.DurationMinutes = math.Round(s.DurationMinutes*10) / 10
		s.AvgResponseTime = math.Round(s.AvgResponseTime)
		if s.Clicks > 0 {
			s.CorrelationRate = math.Round(float64(correlatedClicks)/float64(s.Clicks)*100*10) / 10
		}
		s.Providers = parsePgTextArray(string(providers))
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// parsePgTextArray разбирает простой postgres text[] вида {a,b}.
// Имен вендоров с кавычками/запятыми не бывает — таблица паттернов
// контролирует словарь.
func parsePgTextArray(s string) []string {
	out := []string{}
	if len(s) < 2 || s == "{}" {
		return out
	}
	body := s[1 : len(s)-1]
	start := 0
	for i := 0; i <= len(body); i++ {
		if i == len(body) || body[i] == ',' {
			if item := body[start:i]; item != "" && item != "NULL" {
				out = append(out, item)
			}
			start = i + 1
		}
	}
	return out
}
