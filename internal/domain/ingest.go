package domain

import (
	"encoding/json"
	"fmt"
)

// IngestContext — контекст батча от capture-адаптера (URL страницы, на которой
// шла запись). Используется один раз — при создании рана.
type IngestContext struct {
	URL string `json:"url,omitempty"`
}

// IngestRequest — батч нормализованных событий от capture-адаптера.
// RunID пустой у первого батча сессии: тогда сервер сам минтит ран
// и возвращает его id клиенту.
type IngestRequest struct {
	RunID   string            `json:"runId,omitempty"`
	Context *IngestContext    `json:"context,omitempty"`
	Events  []json.RawMessage `json:"events"`
}

// EventRow — событие после нормализации, готовое к атомарной вставке.
// Payload — исходный объект события целиком, как прислал капчур.
type EventRow struct {
	TMs     int64
	Kind    Kind
	Payload json.RawMessage
}

// eventEnvelope — минимальный конверт для валидации: остальное содержимое
// события нас на ингесте не интересует.
type eventEnvelope struct {
	T    *float64 `json:"t"`
	Kind Kind     `json:"kind"`
}

// Normalize валидирует батч и приводит события к строкам для вставки.
// Любое нарушение схемы отклоняет батч целиком (ErrValidation) — частичная
// запись недопустима. Отсутствующий клиентский таймстемп нормализуется в 0.
func (r *IngestRequest) Normalize() ([]EventRow, error) {
	if r.Events == nil {
		return nil, fmt.Errorf("%w: events array is required", ErrValidation)
	}

	rows := make([]EventRow, 0, len(r.Events))
	for i, raw := range r.Events {
		var env eventEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: events[%d]: %v", ErrValidation, i, err)
		}
		if env.Kind == "" {
			return nil, fmt.Errorf("%w: events[%d]: kind is required", ErrValidation, i)
		}
		if !KnownKinds[env.Kind] {
			return nil, fmt.Errorf("%w: events[%d]: unknown kind %q", ErrValidation, i, env.Kind)
		}

		var tms int64
		if env.T != nil {
			tms = int64(*env.T)
		}
		rows = append(rows, EventRow{TMs: tms, Kind: env.Kind, Payload: raw})
	}
	return rows, nil
}
