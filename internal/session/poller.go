package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/illarion/lockpass/internal/logging"
)

// TickRate is the interval between Tick events
const TickRate = 200 * time.Millisecond

// EventSource is a blocking source of key presses, usually a terminal
type EventSource interface {
	// Poll waits at most timeout for a key. ok is false when none arrived.
	Poll(timeout time.Duration) (key Key, ok bool, err error)
}

// Poller turns an EventSource into the session's event channel
type Poller struct {
	src  EventSource
	tick time.Duration
	log  logging.Logger
}

// NewPoller creates a poller emitting a Tick every tick interval
func NewPoller(src EventSource, tick time.Duration, log logging.Logger) *Poller {
	if tick <= 0 {
		tick = TickRate
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Poller{src: src, tick: tick, log: log}
}

// Start launches the polling goroutine and returns the ordered event
// channel. The queue between them is unbounded so polling never waits on
// the session. The channel closes when ctx is done or the source fails.
func (p *Poller) Start(ctx context.Context) <-chan Event {
	in := make(chan Event)
	out := make(chan Event)
	go p.poll(ctx, in)
	go pump(ctx, in, out)
	return out
}

func (p *Poller) poll(ctx context.Context, in chan<- Event) {
	defer close(in)

	lastTick := time.Now()
	for ctx.Err() == nil {
		timeout := max(p.tick-time.Since(lastTick), 0)

		key, ok, err := p.src.Poll(timeout)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.log.Error(ctx, "input polling failed", "error", err)
			}
			return
		}
		if ok && !send(ctx, in, Input(key)) {
			return
		}
		if time.Since(lastTick) >= p.tick {
			if !send(ctx, in, Tick()) {
				return
			}
			lastTick = time.Now()
		}
	}
}

func send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// pump moves events from in to out through a growing FIFO
func pump(ctx context.Context, in <-chan Event, out chan<- Event) {
	defer close(out)

	var queue []Event
	for in != nil || len(queue) > 0 {
		var sendCh chan<- Event
		var next Event
		if len(queue) > 0 {
			sendCh = out
			next = queue[0]
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, ev)
		case sendCh <- next:
			queue[0] = Event{}
			queue = queue[1:]
		case <-ctx.Done():
			return
		}
	}
}
