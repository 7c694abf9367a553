package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/afr-platform/internal/domain"
)

// ThrottleError несет серверную подсказку Retry-After для расчета задержки ретрая.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

// Client отправляет батчи событий в API платформы.
// Первый батч сессии уходит без runId; сервер минтит ран и возвращает id,
// который клиент запоминает для всех последующих батчей.
type Client struct {
	apiURL string
	http   *http.Client
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger

	mu      sync.Mutex
	runID   string
	pageURL string
}

func NewClient(apiURL string, logger *zap.Logger) *Client {
	// Настройка предохранителя: если API лежит, не долбим его каждым флашем
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "afr-api",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: 10 * time.Second},
		cb:     cb,
		logger: logger.Named("api-client"),
	}
}

// SetPageContext запоминает URL страницы; уходит вместе с первым батчем.
func (c *Client) SetPageContext(url string) {
	c.mu.Lock()
	c.pageURL = url
	c.mu.Unlock()
}

// RunID возвращает id рана, присвоенный сервером (пустая строка до первого флаша).
func (c *Client) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Flush реализует capture.Sink: отправляет батч в POST /ingest.
func (c *Client) Flush(ctx context.Context, events []json.RawMessage) error {
	c.mu.Lock()
	req := domain.IngestRequest{
		RunID:  c.runID,
		Events: events,
	}
	if c.runID == "" && c.pageURL != "" {
		req.Context = &domain.IngestContext{URL: c.pageURL}
	}
	c.mu.Unlock()

	body, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Если API вернул 429 с Retry-After — уважаем подсказку сервера
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return c.post(tCtx, body)
		})
	})
	return err
}

func (c *Client) post(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		after := time.Second
		if v, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && v > 0 {
			after = time.Duration(v) * time.Second
		}
		return &ThrottleError{
			RetryAfter: after,
			Cause:      fmt.Errorf("ingest returned %d", resp.StatusCode),
		}
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ingest returned %d: %s", resp.StatusCode, msg)
	}

	var out struct {
		OK    bool   `json:"ok"`
		RunID string `json:"runId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode ingest response: %w", err)
	}

	// Запоминаем серверный id рана после первого успешного флаша
	if out.RunID != "" {
		c.mu.Lock()
		if c.runID == "" {
			c.runID = out.RunID
			c.logger.Info("run assigned by server", zap.String("run_id", out.RunID))
		}
		c.mu.Unlock()
	}
	return nil
}
