package server

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smartpro-bot/internal/bot"
	"smartpro-bot/internal/trace"
	"smartpro-bot/internal/types"
)

// DefaultUpdateTimeout bounds the handling of one update end to end.
const DefaultUpdateTimeout = 2 * time.Minute

// Handler processes one event. bot.Router implements it.
type Handler interface {
	Handle(ctx context.Context, ev types.Event)
}

// Dispatcher runs every update on its own tracked goroutine so the webhook
// can acknowledge Telegram before any upstream work starts.
type Dispatcher struct {
	handler Handler
	timeout time.Duration
	logger  *zap.Logger
	parse   func(tgbotapi.Update) (types.Event, bool)

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

func WithUpdateTimeout(d time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if d > 0 {
			ds.timeout = d
		}
	}
}

func WithDispatchLogger(l *zap.Logger) DispatcherOption {
	return func(ds *Dispatcher) {
		if l != nil {
			ds.logger = l
		}
	}
}

func NewDispatcher(h Handler, opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handler: h,
		timeout: DefaultUpdateTimeout,
		logger:  zap.NewNop(),
		parse:   bot.ParseUpdate,
		base:    ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch returns immediately. Updates the bot does not handle are dropped.
func (d *Dispatcher) Dispatch(u tgbotapi.Update) {
	ev, ok := d.parse(u)
	if !ok {
		d.logger.Debug("update ignored", zap.Int("update_id", u.UpdateID))
		return
	}

	id := trace.NewID()
	log := d.logger.With(zap.String("trace_id", id), zap.Int("update_id", u.UpdateID))
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("update handler panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			}
		}()

		ctx, cancel := context.WithTimeout(trace.WithID(d.base, id), d.timeout)
		defer cancel()
		start := time.Now()
		d.handler.Handle(ctx, ev)
		log.Debug("update handled", zap.Duration("took", time.Since(start)))
	}()
}

// Shutdown waits for in-flight updates. When ctx expires first their
// contexts are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
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
		return ctx.Err()
	}
}
