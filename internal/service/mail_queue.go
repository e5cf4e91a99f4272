package service

import (
	"bitwise74/auth-api/internal/metrics"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("mail queue full")

// MailQueue hands mails to a fixed pool of workers so a slow mail server
// never holds up a request
type MailQueue struct {
	jobs    chan *Mail
	workers int
	sender  Deliverer
	timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewMailQueue creates a queue buffering up to size mails
func NewMailQueue(sender Deliverer, size, workers int, timeout time.Duration) *MailQueue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	zap.L().Debug("Initializing mail queue", zap.Int("size", size), zap.Int("workers", workers))

	return &MailQueue{
		jobs:    make(chan *Mail, size),
		workers: workers,
		sender:  sender,
		timeout: timeout,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	defer q.wg.Done()

	for m := range q.jobs {
		metrics.MailQueueDepth.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.sender.Deliver(ctx, m)
		cancel()

		if err != nil {
			metrics.MailDeliveries.WithLabelValues("failed").Inc()
			zap.L().Error("Mail delivery failed", zap.Error(err), zap.String("to", m.To), zap.String("subject", m.Subject))
			continue
		}

		metrics.MailDeliveries.WithLabelValues("sent").Inc()
		zap.L().Debug("Mail delivered", zap.String("to", m.To))
	}
}

// Send enqueues a mail without waiting for delivery. It fails right away
// when the queue is full or closed.
func (q *MailQueue) Send(_ context.Context, to, subject, body string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New("mail queue closed")
	}

	select {
	case q.jobs <- &Mail{To: to, Subject: subject, Body: body}:
		metrics.MailQueueDepth.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting mails and waits for queued ones to be delivered
func (q *MailQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	q.wg.Wait()
}
