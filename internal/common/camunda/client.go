// internal/common/camunda/client.go
package camunda

import (
	"context"
	"strings"
	"time"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// Client wraps the Zeebe gRPC client. Broker failures are mapped into the
// routing error taxonomy, and the initial topology check retries transient
// failures with exponential backoff.
type Client struct {
	client zbc.Client
	config ClientConfig
	log    *zap.Logger
}

// ClientConfig holds broker connection settings.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	RequestTimeout         time.Duration
	MaxRetries             int
	BaseDelay              time.Duration
	MaxDelay               time.Duration
}

// ClientConfigFrom builds connection settings from the application config.
func ClientConfigFrom(cfg config.CamundaConfig) ClientConfig {
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true, // Set to false and configure TLS in production
		RequestTimeout:         requestTimeout,
		MaxRetries:             10,
		BaseDelay:              2 * time.Second,
		MaxDelay:               30 * time.Second,
	}
}

// NewClient connects to the broker and verifies the topology before
// returning. Retryable failures back off exponentially up to MaxRetries.
func NewClient(cfg ClientConfig, log *zap.Logger) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, mapBrokerError("create_client", err)
	}

	c := &Client{client: zeebeClient, config: cfg, log: log}

	delay := cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		err = c.HealthCheck(context.Background())
		if err == nil {
			return c, nil
		}

		stdErr, ok := err.(*errors.StandardError)
		if attempt >= cfg.MaxRetries || !ok || !stdErr.Retryable {
			zeebeClient.Close()
			return nil, err
		}

		log.Warn("Zeebe broker not reachable, retrying...",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("maxRetries", cfg.MaxRetries),
			zap.Duration("nextRetryIn", delay),
		)
		time.Sleep(delay)
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// Raw returns the underlying Zeebe client for job worker registration.
func (c *Client) Raw() zbc.Client {
	return c.client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck sends a topology request to the broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return mapBrokerError("topology", err)
	}
	return nil
}

// mapBrokerError converts raw Zeebe errors into standardized errors; the
// resulting Retryable flag drives the connection retry loop.
func mapBrokerError(operation string, err error) *errors.StandardError {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "unreachable") ||
		strings.Contains(msg, "broken pipe"):
		return errors.NewExternalServiceError("zeebe", wrapBrokerError(operation, err))

	case strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", wrapBrokerError(operation, err))

	case strings.Contains(msg, "not found"):
		return errors.NewResourceNotFoundError("zeebe", wrapBrokerError(operation, err).Error())

	default:
		return errors.NewExternalServiceError("zeebe", wrapBrokerError(operation, err))
	}
}

func wrapBrokerError(operation string, err error) error {
	return &brokerError{operation: operation, err: err}
}

type brokerError struct {
	operation string
	err       error
}

func (e *brokerError) Error() string {
	return "Zeebe operation '" + e.operation + "' failed: " + e.err.Error()
}

func (e *brokerError) Unwrap() error {
	return e.err
}
