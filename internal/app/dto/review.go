package dto

import (
	"time"

	domainreviews "babiloc/internal/domain/reviews"
)

type Scores struct {
	Cleanliness   int `json:"cleanliness,omitempty"`
	Accuracy      int `json:"accuracy,omitempty"`
	Communication int `json:"communication,omitempty"`
	Location      int `json:"location,omitempty"`
	Value         int `json:"value,omitempty"`
}

// Review is the public review payload.
type Review struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"property_id"`
	ReservationID string     `json:"reservation_id,omitempty"`
	AuthorID      string     `json:"author_id"`
	Rating        int        `json:"rating"`
	Scores        Scores     `json:"scores"`
	Recommend     bool       `json:"recommend"`
	Comment       string     `json:"comment,omitempty"`
	OwnerReply    string     `json:"owner_reply,omitempty"`
	ReplyAt       *time.Time `json:"reply_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ReviewCollection struct {
	Items []Review `json:"items"`
	Total int      `json:"total"`
}

type ReviewCreated struct {
	ReviewID string `json:"review_id"`
}

type Eligibility struct {
	CanReview     bool   `json:"can_review"`
	ReservationID string `json:"reservation_id,omitempty"`
	Reason        string `json:"reason"`
}

func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	s := review.Scores
	return Review{
		ID:            string(review.ID),
		PropertyID:    string(review.PropertyID),
		ReservationID: string(review.ReservationID),
		AuthorID:      string(review.AuthorID),
		Rating:        review.Rating,
		Scores:        Scores{Cleanliness: s.Cleanliness, Accuracy: s.Accuracy, Communication: s.Communication, Location: s.Location, Value: s.Value},
		Recommend:     review.Recommend,
		Comment:       review.Comment,
		OwnerReply:    review.OwnerReply,
		ReplyAt:       review.ReplyAt,
		CreatedAt:     review.CreatedAt,
	}
}

func MapEligibility(e domainreviews.Eligibility) Eligibility {
	reason := "eligible"
	if !e.Allowed {
		reason = e.Reason
	}
	return Eligibility{CanReview: e.Allowed, ReservationID: string(e.ReservationID), Reason: reason}
}
