package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestRequest_Normalize(t *testing.T) {
	t.Run("valid batch maps to rows", func(t *testing.T) {
		req := IngestRequest{
			Events: []json.RawMessage{
				json.RawMessage(`{"t":100,"kind":"network","url":"https://api.openai.com/v1/chat/completions"}`),
				json.RawMessage(`{"t":250,"kind":"click","selector":"#submit"}`),
				json.RawMessage(`{"t":300,"kind":"dom_fp","interactables":[]}`),
				json.RawMessage(`{"t":400,"kind":"keyframe"}`),
			},
		}

		rows, err := req.Normalize()
		require.NoError(t, err)
		require.Len(t, rows, 4)

		assert.Equal(t, int64(100), rows[0].TMs)
		assert.Equal(t, KindNetwork, rows[0].Kind)
		assert.Equal(t, KindClick, rows[1].Kind)
		// Payload хранится байт-в-байт как прислал капчур
		assert.JSONEq(t, string(req.Events[1]), string(rows[1].Payload))
	})

	t.Run("missing timestamp normalizes to zero", func(t *testing.T) {
		req := IngestRequest{
			Events: []json.RawMessage{json.RawMessage(`{"kind":"click"}`)},
		}
		rows, err := req.Normalize()
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows[0].TMs)
	})

	t.Run("empty batch is valid", func(t *testing.T) {
		req := IngestRequest{Events: []json.RawMessage{}}
		rows, err := req.Normalize()
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	// Любое нарушение схемы отклоняет батч целиком
	rejected := []struct {
		name   string
		events []json.RawMessage
	}{
		{"nil events array", nil},
		{"unknown kind", []json.RawMessage{
			json.RawMessage(`{"t":1,"kind":"click"}`),
			json.RawMessage(`{"t":2,"kind":"scroll"}`),
		}},
		{"missing kind", []json.RawMessage{json.RawMessage(`{"t":1}`)}},
		{"event is not an object", []json.RawMessage{json.RawMessage(`"click"`)}},
	}
	for _, tc := range rejected {
		t.Run("rejects whole batch: "+tc.name, func(t *testing.T) {
			req := IngestRequest{Events: tc.events}
			rows, err := req.Normalize()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, rows, "no partial rows on validation failure")
		})
	}
}
