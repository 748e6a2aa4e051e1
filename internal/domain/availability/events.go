package availability

import (
	"time"

	"babiloc/internal/domain/property"
)

type WindowAdded struct {
	WindowID   WindowID
	PropertyID property.ID
	Weekday    int
	At         time.Time
}

func (e WindowAdded) EventName() string     { return "availability.window_added" }
func (e WindowAdded) AggregateID() string   { return string(e.PropertyID) }
func (e WindowAdded) OccurredAt() time.Time { return e.At }

type WindowRemoved struct {
	WindowID   WindowID
	PropertyID property.ID
	At         time.Time
}

func (e WindowRemoved) EventName() string     { return "availability.window_removed" }
func (e WindowRemoved) AggregateID() string   { return string(e.PropertyID) }
func (e WindowRemoved) OccurredAt() time.Time { return e.At }
