package domain

import (
	"encoding/json"
	"time"
)

// Run — одна записанная сессия капчура. Время жизни рана ограничено
// одним контекстом страницы; URL нужен для подбора baseline-рана при диффе.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	URL       string          `json:"url,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// RunStats — агрегаты по рану, которые отдаем вместе с last-known-good,
// чтобы фронт мог показать «насколько живым» был предыдущий ран.
type RunStats struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"url,omitempty"`
	EventCount int64     `json:"event_count"`
	ClickCount int64     `json:"click_count"`
	LLMCount   int64     `json:"llm_count"`
}

// LastKnownGood — результат поиска baseline-рана: самый свежий ран с тем же
// URL, созданный раньше текущего.
type LastKnownGood struct {
	LastGreenRun *RunStats `json:"last_green_run"`
	CurrentRun   *Run      `json:"current_run"`
}
