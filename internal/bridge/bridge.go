// Package bridge turns guest events from the message bus into registry RPCs.
//
// The subscription handler runs once per message, in delivery order. Each
// recognized event is dispatched on its own goroutine so the handler never
// waits for an RPC to finish; a weighted semaphore caps how many dispatches are
// in flight, and the handler blocks on it when the cap is reached.
//
// Delivery is best effort: a failed RPC is logged and counted, never retried
// and never negatively acknowledged.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/pkg/events"
	"github.com/diagnosis/guest-registry/pkg/logger"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultRPCTimeout  = 5 * time.Second
	DefaultMaxInFlight = 64
)

// ErrDispatch marks a failed downstream RPC.
var ErrDispatch = errors.New("bridge dispatch failed")

// WifiCounter is the slice of the registry client the bridge needs.
type WifiCounter interface {
	IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) (bool, error)
}

type Options struct {
	Subject     string
	QueueGroup  string
	RPCTimeout  time.Duration
	MaxInFlight int64
}

// Stats counts what the bridge did with the messages it received.
type Stats struct {
	Received   uint64
	Ignored    uint64
	Malformed  uint64
	Dispatched uint64
	Succeeded  uint64
	Failed     uint64
}

type Bridge struct {
	sub      events.Subscriber
	registry WifiCounter
	opts     Options
	sem      *semaphore.Weighted

	ctx     context.Context
	started atomic.Bool
	wg      sync.WaitGroup

	received   atomic.Uint64
	ignored    atomic.Uint64
	malformed  atomic.Uint64
	dispatched atomic.Uint64
	succeeded  atomic.Uint64
	failed     atomic.Uint64
}

func New(sub events.Subscriber, registry WifiCounter, opts Options) *Bridge {
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = DefaultRPCTimeout
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	return &Bridge{
		sub:      sub,
		registry: registry,
		opts:     opts,
		sem:      semaphore.NewWeighted(opts.MaxInFlight),
	}
}

// Start subscribes to the configured subject. It returns once the subscription
// is in place; a subscription error is returned as is and the bridge stays
// stopped. Cancelling ctx stops new dispatches; use Wait to drain.
func (b *Bridge) Start(ctx context.Context) error {
	if b.opts.Subject == "" {
		return errors.New("bridge: subject is required")
	}
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("bridge: already started")
	}
	b.ctx = ctx

	var err error
	if b.opts.QueueGroup != "" {
		err = b.sub.QueueSubscribe(b.opts.Subject, b.opts.QueueGroup, b.handle)
	} else {
		err = b.sub.Subscribe(b.opts.Subject, b.handle)
	}
	if err != nil {
		b.started.Store(false)
		return fmt.Errorf("bridge: subscribe to %q: %w", b.opts.Subject, err)
	}

	logger.InfoContext(ctx, "Event bridge subscribed",
		"subject", b.opts.Subject,
		"queue_group", b.opts.QueueGroup,
		"max_in_flight", b.opts.MaxInFlight,
		"rpc_timeout", b.opts.RPCTimeout.String(),
	)
	return nil
}

// Wait blocks until every in-flight dispatch has finished or ctx is done.
func (b *Bridge) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) Stats() Stats {
	return Stats{
		Received:   b.received.Load(),
		Ignored:    b.ignored.Load(),
		Malformed:  b.malformed.Load(),
		Dispatched: b.dispatched.Load(),
		Succeeded:  b.succeeded.Load(),
		Failed:     b.failed.Load(),
	}
}

func (b *Bridge) handle(msg *events.Message) {
	b.received.Add(1)
	ctx := logger.WithMessageID(b.ctx, msg.ID)

	ev, err := events.DecodeGuestEvent(msg.Data)
	if err != nil {
		b.malformed.Add(1)
		logger.WarnContext(ctx, "Skipping malformed guest event", "subject", msg.Subject, "error", err)
		return
	}

	switch ev.Event {
	case events.IncrementWifiLoginCount:
		b.handleWifiLogin(ctx, ev)
	default:
		b.ignored.Add(1)
		logger.DebugContext(ctx, "Ignoring guest event", "event", ev.Event)
	}
}

func (b *Bridge) handleWifiLogin(ctx context.Context, ev events.GuestEvent) {
	data, err := ev.DecodeWifiLogin()
	if err == nil {
		_, err = domain.NewKey(data.LastName, data.RoomNumber)
	}
	if err != nil {
		b.malformed.Add(1)
		logger.WarnContext(ctx, "Skipping malformed guest event", "event", ev.Event, "error", err)
		return
	}
	lastName := domain.NormalizeName(data.LastName)

	if err := b.sem.Acquire(ctx, 1); err != nil {
		b.failed.Add(1)
		logger.WarnContext(ctx, "Dropping guest event, bridge is stopping", "event", ev.Event, "error", err)
		return
	}
	b.dispatched.Add(1)
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer b.sem.Release(1)
		b.dispatch(ctx, lastName, data.RoomNumber)
	}()
}

func (b *Bridge) dispatch(ctx context.Context, lastName string, roomNumber int) {
	// The RPC outlives a cancelled bridge context so shutdown can drain it.
	rpcCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.RPCTimeout)
	defer cancel()

	ok, err := b.registry.IncrementWifiLoginCount(rpcCtx, lastName, roomNumber)
	if err == nil && !ok {
		err = errors.New("registry did not confirm increment")
	}
	if err != nil {
		b.failed.Add(1)
		logger.ErrorContext(ctx, "Wifi login count dispatch failed",
			"last_name", lastName,
			"room_number", roomNumber,
			"error", fmt.Errorf("%w: %w", ErrDispatch, err),
		)
		return
	}

	b.succeeded.Add(1)
	logger.DebugContext(ctx, "Wifi login count incremented", "last_name", lastName, "room_number", roomNumber)
}
