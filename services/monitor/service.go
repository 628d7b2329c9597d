// Package monitor logs a periodic heartbeat and every state change or
// input event announced on the bus.
package monitor

import (
	"context"
	"sync"
	"time"

	"meowbox-go/bus"
	"meowbox-go/logging"
	"meowbox-go/types"
)

var (
	TopicState = bus.T("state", "current")
	TopicInput = bus.T("input", bus.SingleLevel)
)

// Stats is a snapshot of what the monitor has seen.
type Stats struct {
	State       string
	Transitions int
	Inputs      int
	Beats       int
}

type Service struct {
	log      *logging.Logger
	interval time.Duration

	mu    sync.Mutex
	stats Stats
}

func New(log *logging.Logger, interval time.Duration) *Service {
	return &Service{
		log:      log.With("component", "monitor"),
		interval: interval,
	}
}

// Stats returns the snapshot taken at the last processed event.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Service) publish(st Stats) {
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	stateSub := conn.Subscribe(TopicState)
	inputSub := conn.Subscribe(TopicInput)
	defer conn.Unsubscribe(stateSub)
	defer conn.Unsubscribe(inputSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	start := time.Now()
	var st Stats
	for {
		select {
		case <-ctx.Done():
			s.log.Info("monitor stopping")
			return
		case <-tick.C:
			st.Beats++
			s.log.Info("heartbeat",
				"uptime", time.Since(start).Round(time.Second).String(),
				"state", st.State,
				"transitions", st.Transitions,
				"inputs", st.Inputs,
			)
		case msg := <-stateSub.Channel():
			name, _ := msg.Payload.(string)
			if name == st.State {
				continue
			}
			st.State = name
			st.Transitions++
			s.log.Info("state changed", "state", name)
		case msg := <-inputSub.Channel():
			st.Inputs++
			if ev, ok := msg.Payload.(types.InputEvent); ok {
				s.log.Debug("input", "source", ev.Source, "detail", ev.Detail)
			}
		}
		s.publish(st)
	}
}

// Start runs the service on its own goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.Run(ctx, conn)
}
