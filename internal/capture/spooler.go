package capture

/*
Файл spooler.go реализует асинхронную отправку захваченных событий в API.

Ключевые особенности архитектуры:
- Non-blocking Capture: события из hot path страницы (клики, сетевые вызовы)
  попадают в неблокирующий канал. Задержки сети до API не влияют на захват.
- Batching: накопление событий в памяти и пакетная отправка по таймеру
  (flush_interval) или при достижении лимита батча (max_batch).
- Drain Pattern & Graceful Shutdown: при остановке relay буфер вычитывается
  полностью и выполняется финальный flush — хвост сессии не теряется.
- Load Shedding: при переполнении буфера событие сбрасывается с логом,
  захват продолжает работать.
*/

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/infra"
)

// Sink определяет, куда физически уходят батчи событий
type Sink interface {
	// Flush отправляет пачку событий за один раз
	Flush(ctx context.Context, events []json.RawMessage) error
}

type Spooler struct {
	ch     chan json.RawMessage // Буфер для асинхронности
	sink   Sink                 // Интерфейс для HTTP-клиента API
	logger *zap.Logger
	wg     sync.WaitGroup

	flushInterval time.Duration
	maxBatch      int

	// Защита от записи в закрытый канал, если Enqueue вызовут после остановки
	isClosed int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewSpooler(cfg infra.RelayConfig, sink Sink, logger *zap.Logger) *Spooler {
	return &Spooler{
		ch:            make(chan json.RawMessage, cfg.BufferSize),
		sink:          sink,
		logger:        logger.With(zap.String("mod", "spooler")),
		flushInterval: cfg.FlushInterval,
		maxBatch:      cfg.MaxBatch,
	}
}

func (s *Spooler) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё отправит.
func (s *Spooler) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&s.isClosed, 1)

	// 2. Даем крошечную паузу, чтобы текущие Enqueue успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Drain Pattern: завершение горутины происходит исключительно
	// через закрытие входного канала.
	s.logger.Info("stopping spooler: closing channel and flushing buffer...")
	close(s.ch)
	s.wg.Wait()
	s.logger.Info("spooler stopped gracefully")
}

// Enqueue принимает одно захваченное событие. Никогда не блокирует.
func (s *Spooler) Enqueue(event json.RawMessage) {
	// Атомарно проверяем, не закрыт ли канал
	if atomic.LoadInt32(&s.isClosed) == 1 {
		s.logger.Warn("event dropped: spooler is stopping")
		return
	}

	// Стратегия Load Shedding: захват важнее полноты буфера
	select {
	case s.ch <- event:
	default:
		s.logger.Error("capture_buffer_overflow",
			zap.Int("buffer_cap", cap(s.ch)),
		)
	}
}

func (s *Spooler) worker() {
	defer s.wg.Done()

	batch := make([]json.RawMessage, 0, s.maxBatch)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст relay может быть уже закрыт
			if err := s.sink.Flush(context.Background(), batch); err != nil {
				s.logger.Error("flush failed", zap.Int("batch", len(batch)), zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case event, ok := <-s.ch:
			if !ok {
				// Канал закрыт в Stop() — это самодостаточный сигнал для завершения.
				// Воркер сначала вычитал всё из очереди и только потом получил
				// ok == false. Финальный сброс и выход.
				flush()
				s.logger.Info("spool worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= s.maxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
