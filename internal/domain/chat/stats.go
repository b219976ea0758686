package chat

import (
	"context"
	"sync"

	"github.com/matiasleandrokruk/finchat/internal/infra/eventbus"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
)

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Total    int                `json:"total"`
	Stored   int                `json:"stored"`
	BySource map[llm.Source]int `json:"bySource"`
}

// Stats counts answers per backend from TopicAnswered events.
type Stats struct {
	mu       sync.Mutex
	total    int
	stored   int
	bySource map[llm.Source]int
}

func NewStats() *Stats {
	return &Stats{bySource: map[llm.Source]int{
		llm.SourceSession:    0,
		llm.SourceHTTP:       0,
		llm.SourceExtractive: 0,
		llm.SourceFallback:   0,
	}}
}

// Start subscribes to bus and counts events until ctx is done.
func (s *Stats) Start(ctx context.Context, bus eventbus.EventBus) {
	events, cancel := bus.Subscribe(TopicAnswered)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if a, isAnswered := evt.Payload.(Answered); isAnswered {
					s.Record(a)
				}
			}
		}
	}()
}

// Record counts one answer.
func (s *Stats) Record(a Answered) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if a.Stored {
		s.stored++
	}
	s.bySource[a.Source]++
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	by := make(map[llm.Source]int, len(s.bySource))
	for k, v := range s.bySource {
		by[k] = v
	}
	return Snapshot{Total: s.total, Stored: s.stored, BySource: by}
}
