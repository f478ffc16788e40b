// Package eventbus provides an in-memory topic-based publish/subscribe bus. Topics
// are dot-separated; a subscription pattern may use "*" for a single segment or be
// "*" on its own to receive everything.
package eventbus

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event is a single published message.
type Event struct {
	Topic string // topic the event was published on
	Data  any    // event payload
}

type subscriber struct {
	id      string
	pattern string
	ch      chan Event

	mu     sync.Mutex // protects closed
	closed bool
}

// send delivers the event or gives up after timeout. A zero timeout never blocks.
func (s *subscriber) send(event Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if timeout <= 0 {
		select {
		case s.ch <- event:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// EventBus routes published events to every subscriber whose pattern matches.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*subscriber // pattern -> subscriberID -> subscriber
	counter     uint64
}

// New creates an empty bus.
func New() *EventBus {
	return &EventBus{
		subscribers: make(map[string]map[string]*subscriber),
	}
}

// Subscribe registers interest in pattern and returns the delivery channel and a
// function that cancels the subscription and closes the channel.
func (bus *EventBus) Subscribe(pattern string, bufferSize int) (<-chan Event, func()) {
	sub := &subscriber{
		id:      fmt.Sprintf("sub-%d", atomic.AddUint64(&bus.counter, 1)),
		pattern: pattern,
		ch:      make(chan Event, bufferSize),
	}

	bus.mu.Lock()
	if _, ok := bus.subscribers[pattern]; !ok {
		bus.subscribers[pattern] = make(map[string]*subscriber)
	}
	bus.subscribers[pattern][sub.id] = sub
	bus.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			bus.mu.Lock()
			defer bus.mu.Unlock()
			if subMap, ok := bus.subscribers[pattern]; ok {
				delete(subMap, sub.id)
				if len(subMap) == 0 {
					delete(bus.subscribers, pattern)
				}
			}
			sub.close()
		})
	}
	return sub.ch, unsubscribe
}

// Publish sends an event to all matching subscribers and returns how many received
// it. Slow subscribers are skipped once timeout elapses.
func (bus *EventBus) Publish(topic string, data any, timeout time.Duration) int {
	event := Event{Topic: topic, Data: data}

	bus.mu.RLock()
	defer bus.mu.RUnlock()

	delivered := 0
	for pattern, subMap := range bus.subscribers {
		if !matchTopic(pattern, topic) {
			continue
		}
		for _, sub := range subMap {
			if sub.send(event, timeout) {
				delivered++
			}
		}
	}
	return delivered
}

// Shutdown closes every subscription.
func (bus *EventBus) Shutdown() {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, subs := range bus.subscribers {
		for _, sub := range subs {
			sub.close()
		}
	}
	bus.subscribers = make(map[string]map[string]*subscriber)
}

// matchTopic reports whether topic matches pattern segment by segment.
func matchTopic(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	if pattern == "*" || pattern == topic {
		return true
	}
	patternParts := strings.Split(pattern, ".")
	topicParts := strings.Split(topic, ".")
	if len(patternParts) != len(topicParts) {
		return false
	}
	for i := range patternParts {
		if patternParts[i] != "*" && patternParts[i] != topicParts[i] {
			return false
		}
	}
	return true
}
