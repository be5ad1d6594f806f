package appstate

import (
	"sync"

	"github.com/rs/zerolog"

	"photofx/internal/domain"
)

type EventType string

const (
	EventHistory      EventType = "history"
	EventTokens       EventType = "tokens"
	EventCatalog      EventType = "catalog"
	EventNotification EventType = "notification"
)

// Event describes one change. Only the field matching Type is set.
type Event struct {
	Type         EventType              `json:"type"`
	History      []domain.GenerationJob `json:"history,omitempty"`
	Tokens       *int                   `json:"tokens,omitempty"`
	Notification *Notice                `json:"notification,omitempty"`
}

type Notice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type bus struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Event
	logger zerolog.Logger
}

func newBus(logger zerolog.Logger) *bus {
	return &bus{subs: make(map[int]chan Event), logger: logger}
}

func (b *bus) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// publish never blocks.
func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug().Int("subscriber", id).Str("event", string(ev.Type)).Msg("subscriber full; event dropped")
		}
	}
}
