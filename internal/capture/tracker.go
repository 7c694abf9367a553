package capture

import (
	"fmt"
	"math/rand"
	"time"
)

// CorrelationWindow — максимальный временной зазор между LLM-вызовом и кликом,
// при котором они считаются связанными.
const CorrelationWindow = 5000 * time.Millisecond

// CandidateCall — кандидат на корреляцию: исходящий вызов, замеченный в окне.
// Никогда не персистится, живет только в памяти сессии.
type CandidateCall struct {
	ID         string
	T0         int64 // unix-миллисекунды
	URL        string
	Method     string
	LLM        bool
	Provider   string
	Confidence float64 // ∈ [0,1]
}

// Tracker держит короткоживущее окно исходящих вызовов и отвечает на вопрос
// «какой LLM-вызов лучше всего объясняет клик прямо сейчас».
//
// Это best-effort эвристика для мгновенной разметки на капчуре: для любого
// авторитетного использования ее перекрывает серверный коррелятор.
// Tracker принадлежит одной capture-сессии и умирает вместе с ней; вызовы
// RecordCall/FindCorrelated происходят синхронно в точках перехвата,
// блокировки не нужны.
//
// Известное ограничение (сохранено намеренно): чистка окна ленивая,
// только на вставке. Если новых вызовов нет, протухшие кандидаты остаются
// в памяти до конца сессии — FindCorrelated независимо перепроверяет
// свежесть на каждом скане, так что на корректность это не влияет.
type Tracker struct {
	window time.Duration
	calls  []CandidateCall // инвариант: неубывающий T0
	now    func() int64
	rnd    *rand.Rand
}

// TrackerOption настраивает трекер (часы и генератор — для тестов).
type TrackerOption func(*Tracker)

func WithClock(now func() int64) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithRand(rnd *rand.Rand) TrackerOption {
	return func(t *Tracker) { t.rnd = rnd }
}

// NewTracker создает трекер на одну capture-сессию.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		window: CorrelationWindow,
		now:    func() int64 { return time.Now().UnixMilli() },
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// newCorrID минтит низкоэнтропийный id вида <ms>_<суффикс base36>.
// Для уникальности внутри одной сессии этого достаточно; коллизии возможны
// только при нескольких вызовах в одну миллисекунду, гарантии сознательно
// не усилены.
func (t *Tracker) newCorrID(now int64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[t.rnd.Intn(len(alphabet))]
	}
	return fmt.Sprintf("%d_%s", now, suffix)
}

// RecordCall регистрирует исходящий вызов и возвращает его корреляционный id.
// Для LLM-вызовов confidence 0.9 при распознанном вендоре, 0.5 без него,
// для остальных 0. После вставки окно чистится с головы от всего,
// что старше CorrelationWindow.
func (t *Tracker) RecordCall(url, method string, isLLM bool) string {
	now := t.now()
	id := t.newCorrID(now)

	var provider string
	var confidence float64
	if isLLM {
		provider = DetectProvider(url)
		if provider != ProviderUnknown {
			confidence = 0.9
		} else {
			confidence = 0.5
		}
	}

	t.calls = append(t.calls, CandidateCall{
		ID:         id,
		T0:         now,
		URL:        url,
		Method:     method,
		LLM:        isLLM,
		Provider:   provider,
		Confidence: confidence,
	})

	// Ленивая чистка: только с головы и только на вставке.
	cutoff := now - t.window.Milliseconds()
	for len(t.calls) > 0 && t.calls[0].T0 < cutoff {
		t.calls = t.calls[1:]
	}
	return id
}

// FindCorrelated возвращает id лучшего LLM-кандидата в окне на момент now.
// Скан идет от самого свежего к старому; score = confidence*0.7 + recency*0.3.
// Сравнение строгое (>): при равных score побеждает первый встреченный,
// то есть самый свежий кандидат. Отсутствие кандидата — нормальный исход.
func (t *Tracker) FindCorrelated(now int64) (string, bool) {
	cutoff := now - t.window.Milliseconds()

	var best *CandidateCall
	bestScore := 0.0
	for i := len(t.calls) - 1; i >= 0; i-- {
		c := t.calls[i]
		if c.T0 < cutoff {
			// Окно упорядочено по T0 — дальше только старше.
			break
		}
		if !c.LLM {
			continue
		}
		recency := 1 - float64(now-c.T0)/float64(t.window.Milliseconds())
		score := c.Confidence*0.7 + recency*0.3
		if score > bestScore {
			bestScore = score
			best = &t.calls[i]
		}
	}

	if best == nil {
		return "", false
	}
	return best.ID, true
}

// Len отдает видимый размер окна (включая еще не вычищенные протухшие записи).
func (t *Tracker) Len() int { return len(t.calls) }
