package domain

import "encoding/json"

// Keyframe — записанный кадр сессии (полный снапшот или инкремент рекордера).
// Содержимое Data непрозрачно для платформы: пишем и отдаем как есть.
type Keyframe struct {
	ID      int64           `json:"id"`
	RunID   string          `json:"-"`
	TMs     int64           `json:"t_ms"`
	Kind    string          `json:"kind"`
	BlobURL string          `json:"blob_url,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
