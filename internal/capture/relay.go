package capture

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// Relay — локальный приемник сырых событий от браузерного адаптера.
// Владеет трекером кандидатов своей сессии: сетевые вызовы получают corrId
// в момент приема, клики — клиентскую разметку correlationId. Дальше всё
// уходит в спулер и батчами улетает в API.
//
// Обработка строго последовательная в пределах одного запроса: адаптер шлет
// события по одному соединению, порядок приема и есть порядок наблюдения.
type Relay struct {
	tracker *Tracker
	spooler *Spooler
	client  *Client
	logger  *zap.Logger
}

func NewRelay(tracker *Tracker, spooler *Spooler, client *Client, logger *zap.Logger) *Relay {
	return &Relay{
		tracker: tracker,
		spooler: spooler,
		client:  client,
		logger:  logger.Named("relay"),
	}
}

// Routes собирает роутер relay-агента.
func (rl *Relay) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Post("/events", rl.handleEvents)
	return r
}

type relayBatch struct {
	Context *domain.IngestContext `json:"context,omitempty"`
	Events  []json.RawMessage     `json:"events"`
}

// handleEvents принимает события страницы, размечает их и ставит в очередь.
// POST /events
func (rl *Relay) handleEvents(w http.ResponseWriter, r *http.Request) {
	var batch relayBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, `{"error":"malformed body"}`, http.StatusBadRequest)
		return
	}

	if batch.Context != nil && batch.Context.URL != "" {
		rl.client.SetPageContext(batch.Context.URL)
	}

	accepted := 0
	for _, raw := range batch.Events {
		enriched, err := rl.annotate(raw)
		if err != nil {
			rl.logger.Warn("event skipped", zap.Error(err))
			continue
		}
		rl.spooler.Enqueue(enriched)
		accepted++
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":       true,
		"accepted": accepted,
	})
}

// annotate обогащает событие клиентской эвристикой.
// Сетевой вызов: llm/provider/corrId + регистрация в окне кандидатов.
// Клик: correlationId лучшего LLM-кандидата, если он есть в окне.
// Остальные виды проходят насквозь без изменений.
func (rl *Relay) annotate(raw json.RawMessage) (json.RawMessage, error) {
	var env struct {
		Kind   domain.Kind `json:"kind"`
		URL    string      `json:"url"`
		Method string      `json:"method"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Kind {
	case domain.KindNetwork:
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		isLLM := IsLLM(env.URL)
		fields["corrId"] = rl.tracker.RecordCall(env.URL, env.Method, isLLM)
		if isLLM {
			fields["llm"] = true
			fields["provider"] = DetectProvider(env.URL)
		}
		return json.Marshal(fields)

	case domain.KindClick:
		id, ok := rl.tracker.FindCorrelated(rl.tracker.now())
		if !ok {
			return raw, nil
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		fields["correlationId"] = id
		return json.Marshal(fields)

	default:
		return raw, nil
	}
}
