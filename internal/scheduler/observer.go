package scheduler

import (
	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/pkg/model"
)

// Observer receives scheduler events. Observe is called from the tick
// goroutine and must not block.
type Observer interface {
	Observe(ev model.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev model.Event)

func (f ObserverFunc) Observe(ev model.Event) { f(ev) }

// Observers fans an event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(ev model.Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ev)
		}
	}
}

// Poller runs at the start of every tick, before any action is driven.
// Input bindings use it to schedule actions on button edges.
type Poller interface {
	Poll(t action.Tick)
}

// PollerFunc adapts a function to Poller.
type PollerFunc func(t action.Tick)

func (f PollerFunc) Poll(t action.Tick) { f(t) }
