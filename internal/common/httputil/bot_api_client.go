// Package httputil собирает HTTP-клиент для внешних API пересыльщика:
// ретраи на временных ошибках и circuit breaker, размыкающийся при
// серии отказов, чтобы не бомбить Bot API во время его недоступности.
package httputil

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/sunil55999/TelegramForwarderX/internal/config"
	domainerrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
)

// breakerTransport оборачивает обычный транспорт в circuit breaker:
// ответы 5xx засчитываются как отказы и ведут к размыканию цепи.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker
	next    http.RoundTripper
	logger  *slog.Logger
	service string
}

// NewBreakerClient возвращает resty-клиент с ретраями и circuit
// breaker, настроенными из конфигурации. service попадает в имя
// breaker и в логи.
func NewBreakerClient(cfg *config.Config, logger *slog.Logger, service string) *resty.Client {
	client := resty.New().
		SetTimeout(cfg.ExternalRequestTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryBackoff).
		SetRetryMaxWaitTime(cfg.RetryBackoff * 5)

	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}

		for _, status := range cfg.RetryableStatusCodes {
			if r.StatusCode() == status {
				return true
			}
		}

		return false
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service + "_circuit_breaker",
		MaxRequests: uint32(cfg.CBPermittedCallsInHalfOpen), //nolint:gosec // G115: Значение из конфига
		Interval:    time.Duration(cfg.CBSlidingWindowSize) * time.Second,
		Timeout:     cfg.CBWaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CBMinimumRequiredCalls) { //nolint:gosec // G115: Значение из конфига
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= float64(cfg.CBFailureRateThreshold)/100.0
		},
	})

	client.SetTransport(&breakerTransport{
		breaker: breaker,
		next:    http.DefaultTransport,
		logger:  logger,
		service: service,
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.Request.Attempt > 1 {
			logger.Info("Повторная попытка HTTP-запроса",
				"service", service,
				"url", resp.Request.URL,
				"attempt", resp.Request.Attempt,
				"status", resp.StatusCode(),
			)
		}

		return nil
	})

	return client
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.breaker.Execute(func() (any, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, &domainerrors.HTTPError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.logger.Warn("Circuit breaker разомкнут, запрос не отправлен",
				"service", t.service,
				"url", req.URL.String(),
			)
		}

		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &domainerrors.HTTPError{StatusCode: http.StatusInternalServerError}
	}

	return resp, nil
}
