package sink

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/interview"
	logfields "github.com/spigell/interview-screener/internal/logger"
)

const defaultDeliveryTimeout = 15 * time.Second

// Persister stores result records.
type Persister interface {
	Persist(ctx context.Context, r Record) error
}

// Notifier forwards result records to an external system.
type Notifier interface {
	Notify(ctx context.Context, r Record) error
}

type EventKind string

const (
	EventSkipped   EventKind = "skipped"
	EventPersisted EventKind = "persisted"
	EventNotified  EventKind = "notified"
	EventFailed    EventKind = "failed"
)

const (
	TargetStore   = "store"
	TargetWebhook = "webhook"
)

// Event reports the outcome of one delivery attempt.
type Event struct {
	Kind         EventKind       `json:"kind"`
	Target       string          `json:"target,omitempty"`
	SessionID    string          `json:"session_id"`
	CandidateID  string          `json:"candidate_id,omitempty"`
	OverallScore float64         `json:"overall_score"`
	OverallLevel interview.Level `json:"overall_level,omitempty"`
	Error        string          `json:"error,omitempty"`
	At           time.Time       `json:"at"`
}

// Dispatcher delivers completed sessions to storage and the webhook without
// blocking the interview flow.
type Dispatcher struct {
	persister Persister
	notifier  Notifier
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	wg sync.WaitGroup

	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewDispatcher creates a Dispatcher. A nil persister or notifier disables
// that delivery target.
func NewDispatcher(persister Persister, notifier Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		persister:   persister,
		notifier:    notifier,
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]chan Event),
	}
}

// Finalize builds the result record and starts delivery in the background.
// Sessions without a candidate id are skipped.
func (d *Dispatcher) Finalize(ctx context.Context, session interview.Session) {
	base := Event{
		SessionID:    session.ID,
		CandidateID:  session.CandidateID,
		OverallScore: session.AverageScore,
		OverallLevel: session.OverallLevel,
	}

	if session.CandidateID == "" {
		d.logger.Info("no candidate id, skipping result delivery", zap.String("session_id", session.ID))
		d.emit(base, EventSkipped, "", nil)
		return
	}

	record, err := NewRecord(session, d.now())
	if err != nil {
		d.logger.Error("failed to build result record", zap.String("session_id", session.ID), zap.Error(err))
		d.emit(base, EventFailed, "", err)
		return
	}

	deliveryCtx := context.WithoutCancel(ctx)

	if d.persister != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(deliveryCtx, base, TargetStore, EventPersisted, func(ctx context.Context) error {
				return d.persister.Persist(ctx, record)
			})
		}()
	}

	if d.notifier != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(deliveryCtx, base, TargetWebhook, EventNotified, func(ctx context.Context) error {
				return d.notifier.Notify(ctx, record)
			})
		}()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, base Event, target string, success EventKind, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	fields := append(logfields.SessionFields(base.SessionID, base.CandidateID), zap.String("target", target))

	if err := fn(ctx); err != nil {
		d.logger.Warn("result delivery failed", append(fields, zap.Error(err))...)
		d.emit(base, EventFailed, target, err)
		return
	}

	d.logger.Info("result delivered", fields...)
	d.emit(base, success, target, nil)
}

// Subscribe returns a channel of delivery events and a function that
// unsubscribes and closes it. Events are dropped for slow subscribers.
func (d *Dispatcher) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	ch := make(chan Event, buffer)

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subscribers[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subscribers, id)
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Wait blocks until all started deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) emit(base Event, kind EventKind, target string, err error) {
	event := base
	event.Kind = kind
	event.Target = target
	event.At = d.now().UTC()
	if err != nil {
		event.Error = err.Error()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ch := range d.subscribers {
		select {
		case ch <- event:
		default:
			d.logger.Debug("dropping delivery event for slow subscriber", zap.String("session_id", event.SessionID))
		}
	}
}
