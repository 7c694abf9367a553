package domain

import "time"

// OverviewTotals — сквозные счетчики по всему хранилищу.
type OverviewTotals struct {
	Runs            int64 `json:"runs"`
	Events          int64 `json:"events"`
	LLMCalls        int64 `json:"llmCalls"`
	Clicks          int64 `json:"clicks"`
	DomFingerprints int64 `json:"domFingerprints"`
}

type RecentRun struct {
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

type Overview struct {
	Totals     OverviewTotals `json:"totals"`
	RecentRuns []RecentRun    `json:"recentRuns"`
}

// ProviderStats — агрегаты по одному распознанному вендору модельного API.
type ProviderStats struct {
	Provider     string  `json:"provider"`
	Count        int64   `json:"count"`
	AvgDuration  float64 `json:"avg_duration"`
	SuccessCount int64   `json:"success_count"`
	ErrorCount   int64   `json:"error_count"`
}

// PerformanceBucket — почасовая нарезка активности за последние сутки.
type PerformanceBucket struct {
	Hour        time.Time `json:"hour"`
	Events      int64     `json:"events"`
	AvgDuration float64   `json:"avg_duration"`
	LLMCalls    int64     `json:"llm_calls"`
	Clicks      int64     `json:"clicks"`
}

// CorrelationStats — сколько кликов получили клиентскую и серверную привязку.
// Серверная считается только по персистированным payload: join-on-read
// аннотации в хранилище не попадают, поэтому server_correlated_clicks
// отражает лишь то, что записал сам капчур.
type CorrelationStats struct {
	TotalClicks            int64 `json:"total_clicks"`
	CorrelatedClicks       int64 `json:"correlated_clicks"`
	ServerCorrelatedClicks int64 `json:"server_correlated_clicks"`
}

// SessionReport — строка сводного отчета по сессиям.
type SessionReport struct {
	RunID           string   `json:"run_id"`
	URL             string   `json:"url"`
	DurationMinutes float64  `json:"duration_minutes"`
	TotalEvents     int64    `json:"total_events"`
	LLMCalls        int64    `json:"llm_calls"`
	Clicks          int64    `json:"clicks"`
	CorrelationRate float64  `json:"correlation_rate"`
	AvgResponseTime float64  `json:"avg_response_time"`
	Providers       []string `json:"providers"`
}
