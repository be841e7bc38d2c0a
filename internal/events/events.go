// Package events publishes domain events for other services to consume.
// Delivery is best effort; callers log failures and carry on.
package events

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicCalculationSaved   = "calculation.saved"
	TopicCalculationDeleted = "calculation.deleted"
	TopicPodStatusChanged   = "trip.pod_status_changed"
)

// Event is a message with a partition key.
type Event interface {
	Key() string
}

type Publisher interface {
	Publish(ctx context.Context, topic string, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, topic string, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, e); err != nil {
		log.Printf("[events] publish %s key=%s failed: %v", topic, e.Key(), err)
	}
}

type CalculationSaved struct {
	ID        string          `json:"id"`
	Ownership string          `json:"ownership"`
	PartyID   uint            `json:"partyId"`
	TripIDs   []uint          `json:"tripIds"`
	Due       decimal.Decimal `json:"due"`
	Direction string          `json:"direction"`
	Edited    bool            `json:"edited"`
	At        time.Time       `json:"at"`
}

func (e CalculationSaved) Key() string { return e.ID }

type CalculationDeleted struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

func (e CalculationDeleted) Key() string { return e.ID }

type PodStatusChanged struct {
	TripID uint      `json:"tripId"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
}

func (e PodStatusChanged) Key() string { return fmt.Sprint(e.TripID) }

// Recorder keeps published events in memory. Used in tests.
type Recorder struct {
	mu     sync.Mutex
	Topics []string
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, topic string, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Topics = append(r.Topics, topic)
	r.Events = append(r.Events, e)
	return nil
}
