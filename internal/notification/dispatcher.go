package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/medicine-cart/medicine_cart/internal/metrics"
)

const (
	defaultWorkers     = 4
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
	defaultSendTimeout = 10 * time.Second
)

// FailureHook receives messages that exhausted their retries or were
// dropped. It is the dead-letter path.
type FailureHook func(message Message, err error)

// DispatcherConfig tunes the background delivery pool. Zero values use defaults.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts uint64
	BaseDelay   time.Duration
	SendTimeout time.Duration
	OnFailure   FailureHook
}

// Dispatcher hands messages to a Sender off the request path. Callers get
// control back as soon as the message is queued; delivery failures are
// logged and counted, never returned.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig
	logger *slog.Logger

	queue  chan Message
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker pool.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Message, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Dispatch queues message for background delivery. It reports false when the
// message was dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, message Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, message, "closed")
		return false
	}

	select {
	case d.queue <- message:
		return true
	default:
		d.drop(ctx, message, "queue_full")
		return false
	}
}

// Close stops accepting messages and waits for queued ones to drain. If ctx
// expires first, in-flight sends are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for message := range d.queue {
		d.deliver(message)
	}
}

func (d *Dispatcher) deliver(message Message) {
	b := retry.NewExponential(d.cfg.BaseDelay)
	b = retry.WithCappedDuration(defaultMaxDelay, b)
	b = retry.WithMaxRetries(d.cfg.MaxAttempts-1, b)

	var attempts int
	err := retry.Do(d.ctx, b, func(ctx context.Context) error {
		attempts++
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
		if err := d.sender.Send(sendCtx, message); err != nil {
			d.logger.Warn("notification attempt failed",
				slog.String("kind", message.Kind),
				slog.Int("attempt", attempts),
				slog.Any("error", err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		metrics.NotificationFailures.WithLabelValues(message.Kind, "exhausted").Inc()
		d.logger.Error("notification delivery failed",
			slog.String("kind", message.Kind),
			slog.String("destination", message.Destination),
			slog.Int("attempts", attempts),
			slog.Any("error", err),
		)
		if d.cfg.OnFailure != nil {
			d.cfg.OnFailure(message, err)
		}
		return
	}

	metrics.NotificationsSent.WithLabelValues(message.Kind).Inc()
	d.logger.Info("notification delivered",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.Int("attempts", attempts),
	)
}

func (d *Dispatcher) drop(ctx context.Context, message Message, reason string) {
	metrics.NotificationFailures.WithLabelValues(message.Kind, reason).Inc()
	d.logger.WarnContext(ctx, "notification dropped",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("reason", reason),
	)
	if d.cfg.OnFailure != nil {
		d.cfg.OnFailure(message, errDropped(reason))
	}
}

type errDropped string

func (e errDropped) Error() string { return "notification dropped: " + string(e) }
