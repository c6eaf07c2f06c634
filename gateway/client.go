package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ticketsync/entity"
	"ticketsync/metrics"
)

const maxErrorBodySize = 4 << 10

type Config struct {
	TicketingURL string
	TransportURL string
	PassengerURL string

	// Timeout of a single request, zero means no timeout.
	Timeout time.Duration

	// CancelMethod is PUT (PUT /tickets/{id}/cancel) or DELETE (DELETE /tickets/{id}).
	CancelMethod string

	HTTPClient *http.Client
}

// TicketingClient talks to the ticketing, transport and passenger services.
// It holds no state besides its configuration.
type TicketingClient struct {
	httpClient   *http.Client
	ticketingURL string
	transportURL string
	passengerURL string
	cancelMethod string
	now          func() time.Time
}

func NewTicketingClient(cfg Config) TicketingClient {
	if cfg.TicketingURL == "" {
		panic("missing ticketing URL")
	}
	if cfg.TransportURL == "" {
		cfg.TransportURL = cfg.TicketingURL
	}
	if cfg.PassengerURL == "" {
		cfg.PassengerURL = cfg.TicketingURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}

	cancelMethod := strings.ToUpper(cfg.CancelMethod)
	if cancelMethod != http.MethodDelete {
		cancelMethod = http.MethodPut
	}

	return TicketingClient{
		httpClient:   httpClient,
		ticketingURL: strings.TrimSuffix(cfg.TicketingURL, "/"),
		transportURL: strings.TrimSuffix(cfg.TransportURL, "/"),
		passengerURL: strings.TrimSuffix(cfg.PassengerURL, "/"),
		cancelMethod: cancelMethod,
		now:          time.Now,
	}
}

type request struct {
	method   string
	url      string
	token    string
	body     any
	response any
}

func (c TicketingClient) do(ctx context.Context, operation string, r request) (err error) {
	start := time.Now()
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"operation": operation,
		"method":    r.method,
		"url":       r.url,
	})

	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		metrics.GatewayRequests.WithLabelValues(operation, outcomeLabel(err)).Inc()

		if err != nil {
			logger.WithError(err).Warn("Backend request failed")
		}
	}()

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if correlationID := log.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set("Correlation-ID", correlationID)
	}

	logger.Debug("Calling backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.NetworkError{Op: operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(operation, resp)
	}

	if r.response == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entity.NetworkError{Op: operation, Err: err}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, r.response); err != nil {
		return fmt.Errorf("could not decode %s response: %w", operation, err)
	}

	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newServerError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	message := ""
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		message = body.Message
		if message == "" {
			message = body.Error
		}
	} else {
		message = strings.TrimSpace(string(raw))
	}

	return &entity.ServerError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Kind:       errorKind(operation, resp.StatusCode),
	}
}

// errorKind maps a rejected request to the error taxonomy. A 4xx on a
// cancel means the ticket cannot be cancelled any more, on other commands
// it means the input was refused.
func errorKind(operation string, statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return entity.ErrUnauthorized
	case http.StatusNotFound:
		return entity.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if operation == "cancel_ticket" {
			return entity.ErrInvalidState
		}
		return entity.ErrValidation
	default:
		return nil
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrNetwork):
		return "network_error"
	default:
		var serverErr *entity.ServerError
		if errors.As(err, &serverErr) {
			return fmt.Sprintf("http_%d", serverErr.StatusCode)
		}
		return "error"
	}
}
