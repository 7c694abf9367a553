package domain

import "encoding/json"

// Kind — тип события внутри рана. Всё, что прилетает с капчура,
// сводится к этим четырем видам.
type Kind string

const (
	KindNetwork     Kind = "network" // Исходящий сетевой вызов (в т.ч. LLM API)
	KindClick       Kind = "click"   // Клик пользователя
	KindFingerprint Kind = "dom_fp"  // Семантический слепок интерактивных элементов
	KindKeyframe    Kind = "keyframe"
)

// KnownKinds используется валидацией ингеста: батч с неизвестным kind
// отклоняется целиком.
var KnownKinds = map[Kind]bool{
	KindNetwork:     true,
	KindClick:       true,
	KindFingerprint: true,
	KindKeyframe:    true,
}

// Event — одно наблюдение внутри рана.
// TMs — клиентское время в миллисекундах: монотонно внутри рана,
// но несравнимо между ранами. Payload хранится как сырой JSON,
// движки декодируют только нужные им поля.
type Event struct {
	ID      int64           `json:"id"`
	RunID   string          `json:"run_id,omitempty"`
	TMs     int64           `json:"t_ms"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ReqInfo / ResInfo — усеченные данные запроса/ответа, уже отредактированные
// на стороне капчура. Мы их не интерпретируем, только храним.
type ReqInfo struct {
	Size *int64  `json:"size,omitempty"`
	Body *string `json:"body,omitempty"`
}

type ResInfo struct {
	Status *int    `json:"status,omitempty"`
	Sample *string `json:"sample,omitempty"`
}

// NetworkPayload — payload события kind=network.
// LLM означает, что вызов распознан как обращение к модельному API;
// Provider — best-effort классификация вендора по URL.
type NetworkPayload struct {
	T        int64    `json:"t,omitempty"`
	Kind     Kind     `json:"kind"`
	URL      string   `json:"url"`
	Method   string   `json:"method,omitempty"`
	LLM      bool     `json:"llm,omitempty"`
	Provider string   `json:"provider,omitempty"`
	CorrID   string   `json:"corrId,omitempty"`
	Req      *ReqInfo `json:"req,omitempty"`
	Res      *ResInfo `json:"res,omitempty"`
	DurMs    int64    `json:"durMs,omitempty"`
}

// ServerCorrelation — серверная (авторитетная) привязка клика к LLM-вызову.
// Вычисляется на чтении и никогда не пишется обратно в хранилище.
type ServerCorrelation struct {
	LLMEventID int64 `json:"llmEventId"`
	Dt         int64 `json:"dt"`
}

// ClickPayload — payload события kind=click.
// CorrelationID проставлен клиентской эвристикой в момент капчура (если был
// кандидат). CorrelationServer присутствует только на производных копиях,
// которые отдает Server Correlator.
type ClickPayload struct {
	T                 int64              `json:"t,omitempty"`
	Kind              Kind               `json:"kind"`
	Selector          string             `json:"selector,omitempty"`
	Text              string             `json:"text,omitempty"`
	CorrelationID     *string            `json:"correlationId,omitempty"`
	CorrelationServer *ServerCorrelation `json:"correlationServer,omitempty"`
}

// ActionableElement — структурное описание одного интерактивного элемента.
// Selector — стабильный локатор, уникальный в пределах одного снапшота.
type ActionableElement struct {
	Selector string `json:"selector"`
	Intent   string `json:"intent,omitempty"`
	Text     string `json:"text,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// FingerprintPayload — payload события kind=dom_fp: упорядоченный список
// интерактивных элементов плюс грубый хэш раскладки.
type FingerprintPayload struct {
	T           int64               `json:"t,omitempty"`
	Kind        Kind                `json:"kind"`
	Actionables []ActionableElement `json:"interactables,omitempty"`
	LayoutHash  string              `json:"layoutHash,omitempty"`
}
