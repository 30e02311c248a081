package queue

import (
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"thefinder/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Batch is a group of listings handled together.
type Batch struct {
	Listings []*models.Listing

	// Done, when set, is called after every handler ran, with the first handler
	// error or nil.
	Done func(err error)
}

// ListingQueue represents an in-memory queue for listing batches
type ListingQueue struct {
	items    chan Batch
	done     chan struct{}
	stopped  chan struct{}
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.Listing) error
}

// NewListingQueue creates a new listing queue with the specified buffer size
func NewListingQueue(bufferSize int, logger *logrus.Logger) *ListingQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &ListingQueue{
		items:    make(chan Batch, bufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.Listing) error, 0),
	}
}

// Push adds a batch to the queue without blocking
func (q *ListingQueue) Push(batch Batch) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch.Listings)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *ListingQueue) Subscribe(handler func([]*models.Listing) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *ListingQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

func (q *ListingQueue) process() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case batch := <-q.items:
			q.processBatch(batch)
		}
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *ListingQueue) processBatch(batch Batch) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(batch.Listings); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if batch.Done != nil {
		batch.Done(firstErr)
	}
}

// Close stops the queue and prevents new items from being added. It waits for
// the batch in progress; batches still buffered are released with ErrQueueClosed.
func (q *ListingQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.done)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	for {
		select {
		case batch := <-q.items:
			if batch.Done != nil {
				batch.Done(ErrQueueClosed)
			}
		default:
			return nil
		}
	}
}

// Len returns the current number of batches in the queue
func (q *ListingQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ListingQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
