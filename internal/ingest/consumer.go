package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"thefinder/server/config"
	"thefinder/server/internal/models"
	"thefinder/server/internal/queue"
)

const (
	consumerTag    = "thefinder-ingest"
	reconnectDelay = 5 * time.Second
)

// Consumer reads processed listing events from RabbitMQ, groups them into
// batches and hands the batches to the listing queue. A delivery is acked only
// once its batch has been stored.
type Consumer struct {
	url       string
	queueName string
	prefetch  int
	batchSize int
	batchWait time.Duration

	decoder *Decoder
	queue   *queue.ListingQueue
	logger  *logrus.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
}

func NewConsumer(cfg *config.Config, decoder *Decoder, listingQueue *queue.ListingQueue, logger *logrus.Logger) *Consumer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	batchSize := cfg.BatchProcessing.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	prefetch := cfg.Ingest.Prefetch
	if prefetch < batchSize {
		logger.WithFields(logrus.Fields{
			"prefetch":   prefetch,
			"batch_size": batchSize,
		}).Warn("Prefetch is lower than the batch size, raising it")
		prefetch = batchSize
	}
	batchWait := time.Duration(cfg.BatchProcessing.MaxBatchWaitTime) * time.Second
	if batchWait <= 0 {
		batchWait = time.Second
	}
	return &Consumer{
		url:       cfg.Ingest.AMQPURL,
		queueName: cfg.Ingest.Queue,
		prefetch:  prefetch,
		batchSize: batchSize,
		batchWait: batchWait,
		decoder:   decoder,
		queue:     listingQueue,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled, reconnecting after broker failures.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WithError(err).Warn("Listing consumer stopped, reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) runOnce(ctx context.Context) error {
	if err := c.connect(); err != nil {
		return err
	}

	c.mu.Lock()
	conn, channel := c.conn, c.channel
	c.mu.Unlock()

	deliveries, err := channel.Consume(c.queueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		c.closeConnection()
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"queue":      c.queueName,
		"batch_size": c.batchSize,
		"batch_wait": c.batchWait.String(),
	}).Info("Waiting for listing events")

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	channelClosed := channel.NotifyClose(make(chan *amqp.Error, 1))

	if err := c.serve(ctx, deliveries, connClosed, channelClosed); err != nil {
		c.closeConnection()
		return err
	}
	// the connection stays open so batches still in the queue can be settled;
	// Close releases it
	return nil
}

// serve runs the batching loop until ctx is cancelled, the broker closes the
// connection or channel, or the delivery stream ends. Only a cancelled ctx
// returns nil.
func (c *Consumer) serve(ctx context.Context, deliveries <-chan amqp.Delivery, connClosed, channelClosed <-chan *amqp.Error) error {
	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	consumed := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(consumed)
		c.consume(consumeCtx, deliveries)
	}()

	stop := func() {
		cancel()
		<-consumed
	}
	select {
	case <-ctx.Done():
		stop()
		return nil
	case amqpErr, ok := <-connClosed:
		stop()
		return closeError("connection", amqpErr, ok)
	case amqpErr, ok := <-channelClosed:
		stop()
		return closeError("channel", amqpErr, ok)
	case <-consumed:
		if ctx.Err() != nil {
			return nil
		}
		return errors.New("delivery stream closed")
	}
}

func closeError(what string, amqpErr *amqp.Error, ok bool) error {
	if !ok || amqpErr == nil {
		return fmt.Errorf("broker %s closed", what)
	}
	return fmt.Errorf("broker %s closed: %w", what, amqpErr)
}

func (c *Consumer) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", c.queueName, err)
	}
	if err := channel.Qos(c.prefetch, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func (c *Consumer) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}
	c.conn = nil
}

// Close waits for the batching loop and closes the broker connection. Call it
// after the listing queue has drained.
func (c *Consumer) Close() error {
	c.wg.Wait()
	c.closeConnection()
	return nil
}

// consume accumulates deliveries until the batch is full or batchWait has
// passed since its first message. The pending batch is flushed on exit.
func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	pending := make([]amqp.Delivery, 0, c.batchSize)

	timer := time.NewTimer(c.batchWait)
	if !timer.Stop() {
		<-timer.C
	}
	stopTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			c.flush(pending)
			return

		case d, ok := <-deliveries:
			if !ok {
				stopTimer()
				c.flush(pending)
				return
			}
			if len(pending) == 0 {
				timer.Reset(c.batchWait)
			}
			pending = append(pending, d)
			if len(pending) >= c.batchSize {
				stopTimer()
				c.flush(pending)
				pending = make([]amqp.Delivery, 0, c.batchSize)
			}

		case <-timer.C:
			if len(pending) > 0 {
				c.flush(pending)
				pending = make([]amqp.Delivery, 0, c.batchSize)
			}
		}
	}
}

// flush decodes the deliveries and pushes the valid ones as one batch. Invalid
// messages are rejected without requeue; a batch the queue cannot take is
// requeued on the broker.
func (c *Consumer) flush(pending []amqp.Delivery) {
	if len(pending) == 0 {
		return
	}

	accepted := make([]amqp.Delivery, 0, len(pending))
	byPostID := make(map[string]int, len(pending))
	listings := make([]*models.Listing, 0, len(pending))
	for _, d := range pending {
		listing, err := c.decoder.Decode(d.Body)
		if err != nil {
			c.logger.WithError(err).WithField("delivery_tag", d.DeliveryTag).Warn("Rejecting invalid listing event")
			if nackErr := d.Nack(false, false); nackErr != nil {
				c.logger.WithError(nackErr).Error("Failed to reject listing event")
			}
			continue
		}
		accepted = append(accepted, d)
		// a post published twice in one batch is stored once, latest version wins
		if idx, ok := byPostID[listing.PostID]; ok {
			listings[idx] = listing
			continue
		}
		byPostID[listing.PostID] = len(listings)
		listings = append(listings, listing)
	}
	if len(listings) == 0 {
		return
	}

	batchLogger := c.logger.WithField("batch_size", len(listings))
	err := c.queue.Push(queue.Batch{
		Listings: listings,
		Done: func(err error) {
			if err != nil {
				batchLogger.WithError(err).Error("Failed to store listing batch, requeueing")
				settle(accepted, batchLogger, func(d amqp.Delivery) error { return d.Nack(false, true) })
				return
			}
			batchLogger.Info("Stored listing batch")
			settle(accepted, batchLogger, func(d amqp.Delivery) error { return d.Ack(false) })
		},
	})
	if err != nil {
		batchLogger.WithError(err).Warn("Listing queue rejected batch, requeueing")
		settle(accepted, batchLogger, func(d amqp.Delivery) error { return d.Nack(false, true) })
	}
}

func settle(deliveries []amqp.Delivery, logger *logrus.Entry, fn func(amqp.Delivery) error) {
	for _, d := range deliveries {
		if err := fn(d); err != nil {
			logger.WithError(err).WithField("delivery_tag", d.DeliveryTag).Error("Failed to settle listing event")
		}
	}
}
