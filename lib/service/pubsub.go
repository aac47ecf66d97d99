package service

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Pubsub fans order side-effect events out to in-process consumers, keyed
// by event topic.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan OrderEvent
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan OrderEvent)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan OrderEvent) (subID string, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan OrderEvent)
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	subID = hex.EncodeToString(b)
	ps.subs[topic][subID] = ch
	return subID, nil
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

func (ps *Pubsub) Publish(topic string, msg OrderEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		ch <- msg
	}
}

// HasSubscribers reports whether anything listens on the topic, so unknown
// webhook types can be forwarded only when a consumer registered for them.
func (ps *Pubsub) HasSubscribers(topic string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subs[topic]) > 0
}
