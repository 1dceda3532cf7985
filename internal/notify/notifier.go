// Package notify fans out the short-lived operator messages every cart and
// scan operation reports through ("Dodano: ...", "Nie znaleziono produktu",
// store errors). Messages expire after a fixed window; nothing here is ever
// fatal.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTTL = 3 * time.Second

type Notifier struct {
	mu      sync.Mutex
	current string
	seq     uint64
	nextSub int
	subs    map[int]chan string

	ttl       time.Duration
	afterFunc func(d time.Duration, fn func()) *time.Timer
	log       zerolog.Logger
}

func New(log zerolog.Logger) *Notifier {
	return &Notifier{
		subs:      make(map[int]chan string),
		ttl:       DefaultTTL,
		afterFunc: time.AfterFunc,
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// Notify publishes a transient message. It replaces the current one and
// schedules its expiry; a newer message supersedes the pending expiry of an
// older one.
func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	n.current = message
	n.seq++
	seq := n.seq
	subs := make([]chan string, 0, len(n.subs))
	for _, ch := range n.subs {
		subs = append(subs, ch)
	}
	n.mu.Unlock()

	n.log.Info().Str("message", message).Msg("notification")

	for _, ch := range subs {
		select {
		case ch <- message:
		default:
			// Slow subscriber, drop. Notifications are transient.
		}
	}

	n.afterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.seq == seq {
			n.current = ""
		}
	})
}

// Current returns the active message, or "" when the last one expired.
func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Subscribe returns a channel receiving every published message and a
// cancel function. Delivery is best effort.
func (n *Notifier) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 16)

	n.mu.Lock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch
	n.mu.Unlock()

	return ch, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}
