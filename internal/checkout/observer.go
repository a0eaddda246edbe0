package checkout

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Transition records one state change of a checkout attempt.
type Transition struct {
	AttemptID string
	From      State
	To        State
	OrderID   string
	Err       error
	At        time.Time
}

// Observer is notified of every transition, in order, outside the orchestrator's lock.
type Observer interface {
	Observe(t Transition)
}

type ObserverFunc func(Transition)

func (f ObserverFunc) Observe(t Transition) { f(t) }

// LogObserver writes transitions to a logrus logger.
type LogObserver struct {
	log log.FieldLogger
}

func NewLogObserver(logger log.FieldLogger) *LogObserver {
	return &LogObserver{log: logger.WithField("component", "checkout")}
}

func (o *LogObserver) Observe(t Transition) {
	entry := o.log.WithFields(log.Fields{
		"attempt_id": t.AttemptID,
		"from":       t.From.String(),
		"to":         t.To.String(),
	})
	if t.OrderID != "" {
		entry = entry.WithField("order_id", t.OrderID)
	}
	if t.Err != nil {
		entry.WithError(t.Err).Warn("Checkout transition")
		return
	}
	entry.Info("Checkout transition")
}

// Publisher sends a keyed event to the journal topic.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// JournalEntry is the wire form of a transition.
type JournalEntry struct {
	AttemptID string    `json:"attempt_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	OrderID   string    `json:"order_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

func NewJournalEntry(t Transition) JournalEntry {
	e := JournalEntry{
		AttemptID: t.AttemptID,
		From:      t.From.String(),
		To:        t.To.String(),
		OrderID:   t.OrderID,
		At:        t.At,
	}
	if t.Err != nil {
		e.Error = t.Err.Error()
	}
	return e
}

const journalQueueSize = 64

// JournalObserver publishes transitions keyed by attempt id from a background worker.
// Observe never waits on the broker: when the queue is full the transition is dropped.
// Publish failures are logged.
type JournalObserver struct {
	publisher Publisher
	timeout   time.Duration
	log       log.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	queue  chan JournalEntry
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewJournalObserver(publisher Publisher, logger log.FieldLogger) *JournalObserver {
	return newJournalObserver(publisher, logger, journalQueueSize)
}

func newJournalObserver(publisher Publisher, logger log.FieldLogger, size int) *JournalObserver {
	ctx, cancel := context.WithCancel(context.Background())
	o := &JournalObserver{
		publisher: publisher,
		timeout:   5 * time.Second,
		log:       logger.WithField("component", "checkout-journal"),
		ctx:       ctx,
		cancel:    cancel,
		queue:     make(chan JournalEntry, size),
		done:      make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *JournalObserver) Observe(t Transition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.queue <- NewJournalEntry(t):
	default:
		o.log.WithField("attempt_id", t.AttemptID).Warn("Journal queue full, dropping checkout transition")
	}
}

func (o *JournalObserver) run() {
	defer close(o.done)
	for e := range o.queue {
		ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
		err := o.publisher.Publish(ctx, e.AttemptID, e)
		cancel()
		if err != nil {
			o.log.WithError(err).WithField("attempt_id", e.AttemptID).Warn("Failed to publish checkout transition")
		}
	}
}

// Close flushes queued transitions for up to one publish timeout, then abandons the rest.
func (o *JournalObserver) Close() error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	select {
	case <-o.done:
	case <-time.After(o.timeout):
		o.cancel()
		<-o.done
	}
	o.cancel()
	return nil
}
