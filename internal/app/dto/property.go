package dto

import (
	"time"

	domainavailability "babiloc/internal/domain/availability"
	domainproperty "babiloc/internal/domain/property"
)

type Property struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	City        string    `json:"city,omitempty"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Verified    bool      `json:"verified"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func MapProperty(p *domainproperty.Property) Property {
	return Property{
		ID:          string(p.ID),
		OwnerID:     string(p.OwnerID),
		Title:       p.Title,
		City:        p.City,
		Address:     p.Address,
		Description: p.Description,
		Verified:    p.Verified,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt,
	}
}

type Window struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

type WindowCollection struct {
	PropertyID string   `json:"property_id"`
	Items      []Window `json:"items"`
}

func MapWindow(w *domainavailability.Window) Window {
	return Window{
		ID:        string(w.ID),
		Weekday:   domainavailability.WeekdayNumber(w.Weekday),
		ValidFrom: w.ValidFrom.Format(time.DateOnly),
		ValidTo:   w.ValidTo.Format(time.DateOnly),
	}
}

func MapWindows(propertyID string, items []*domainavailability.Window) WindowCollection {
	out := WindowCollection{PropertyID: propertyID, Items: make([]Window, 0, len(items))}
	for _, w := range items {
		out.Items = append(out.Items, MapWindow(w))
	}
	return out
}
