package backend

import (
	"context"
	"fmt"
	"log/slog"

	"milkbill/internal/amqp"
	"milkbill/internal/store/httpstore"
	"milkbill/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *slog.Logger
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result *BackendResult
	var err error
	switch config.Type {
	case HTTPBackend:
		result, err = f.createHTTPBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if client := f.connectEvents(config); client != nil {
		result.Publisher = client
		result.Cleanup = client.Close
	}
	return result, nil
}

func (f *DefaultFactory) createHTTPBackend(config Config) (*BackendResult, error) {
	client, err := httpstore.New(config.BaseURL, config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP store client: %w", err)
	}

	f.logger.Info("Initialized HTTP store backend",
		"base_url", client.BaseURL(),
		"timeout", config.Timeout)

	return &BackendResult{Store: client}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var (
		s   *memory.Store
		err error
	)
	if config.SeedFile == "" {
		s = memory.New(nil)
	} else if s, err = memory.NewFromFile(config.SeedFile); err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend",
		"seed_file", config.SeedFile,
		"bills", s.Len())

	return &BackendResult{Store: s}, nil
}

// connectEvents dials the broker when configured. An unreachable broker is
// logged and the backend runs without events.
func (f *DefaultFactory) connectEvents(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
