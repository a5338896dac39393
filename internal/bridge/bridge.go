package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/covenlabs/coven-indexer/internal/adapter"
	"github.com/covenlabs/coven-indexer/internal/domain"
	"github.com/covenlabs/coven-indexer/internal/logger"
	"github.com/covenlabs/coven-indexer/internal/messaging"
)

// Config holds the configuration for the NATS bridge
type Config struct {
	URL            string
	StreamName     string
	Subject        string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

type bridge struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	json   adapter.JSON
	config Config
}

// NewBridge connects to NATS and returns a batch source backed by a durable
// JetStream consumer.
func NewBridge(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Source, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:     nc,
		js:     js,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

// Run starts consuming transaction log batches. Messages are handled strictly
// one at a time: aggregate state depends on chain order, so the next message
// is not touched until the previous one is acked or nacked.
func (b *bridge) Run(ctx context.Context, handler messaging.BatchHandler) error {
	logger.Info("Starting bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("subject", b.config.Subject),
		zap.String("consumer", b.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: b.config.Subject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg, handler)
		}
	}
}

// handleMessage processes a single NATS message
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message, handler messaging.BatchHandler) {
	var batch domain.TransactionLogBatch
	if err := b.json.Unmarshal(msg.Data(), &batch); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to unmarshal batch"))
		// Terminate message for unparseable data
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		logger.Debug("Received batch",
			zap.String("txHash", batch.TxHash),
			zap.Uint64("blockNumber", batch.BlockNumber),
			zap.Int("logs", len(batch.Logs)),
			zap.Uint64("deliveryCount", metadata.NumDelivered))
	}

	if err := handler(ctx, &batch); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to process batch"), zap.String("txHash", batch.TxHash))
		if errors.Is(err, domain.ErrMissingTxHash) {
			// Redelivery cannot repair a batch without an identity.
			if err := msg.Term(); err != nil {
				logger.Error(err, zap.String("message", "Failed to terminate message"))
			}
			return
		}
		// NAK to retry
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	// ACK message after successful processing
	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
