// Package correlate реализует серверную (авторитетную) привязку кликов
// к LLM-вызовам: детерминированный join-on-read по полному таймлайну рана.
package correlate

import (
	"encoding/json"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// Window — максимальный зазор между LLM-вызовом и кликом.
const Window int64 = 5000

// llmCall — минимальная проекция network-события для джойна.
type llmCall struct {
	id  int64
	tms int64
}

// Annotate прикрепляет к каждому клику ближайший предшествующий LLM-вызов
// в пределах окна. Вход обязан быть упорядочен по возрастанию t_ms.
//
// Функция чистая: исходный срез и события в сторе не мутируются, клики
// с совпадением возвращаются как производные копии с correlationServer
// в payload. Клик без подходящего вызова возвращается как есть — это
// нормальный результат, не ошибка. Повторный вызов на том же входе дает
// идентичные аннотации.
func Annotate(events []domain.Event) []domain.Event {
	// Партиционируем LLM-вызовы (уже по возрастанию t_ms).
	calls := make([]llmCall, 0)
	for _, e := range events {
		if e.Kind != domain.KindNetwork {
			continue
		}
		var p struct {
			LLM bool `json:"llm"`
		}
		if err := json.Unmarshal(e.Payload, &p); err != nil || !p.LLM {
			continue
		}
		calls = append(calls, llmCall{id: e.ID, tms: e.TMs})
	}

	out := make([]domain.Event, len(events))
	copy(out, events)

	for i, e := range out {
		if e.Kind != domain.KindClick {
			continue
		}
		t := e.TMs

		// Скан с хвоста: первый вызов в окне и есть ближайший предшествующий.
		// Ровно одно совпадение на клик; вызовы строго после клика не годятся.
		var best *llmCall
		for j := len(calls) - 1; j >= 0; j-- {
			c := calls[j]
			dt := t - c.tms
			if dt >= 0 && dt <= Window {
				best = &calls[j]
				break
			}
			if dt > Window {
				// Вход упорядочен — все более ранние вызовы еще дальше.
				break
			}
		}
		if best == nil {
			continue
		}

		annotated, err := withServerCorrelation(e.Payload, domain.ServerCorrelation{
			LLMEventID: best.id,
			Dt:         t - best.tms,
		})
		if err != nil {
			// Битый payload не повод ронять выдачу — отдаем клик без аннотации.
			continue
		}
		out[i].Payload = annotated
	}
	return out
}

// withServerCorrelation строит производную копию payload с полем
// correlationServer, не трогая остальные ключи.
func withServerCorrelation(payload json.RawMessage, sc domain.ServerCorrelation) (json.RawMessage, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, err
	}
	obj["correlationServer"] = sc
	return json.Marshal(obj)
}
