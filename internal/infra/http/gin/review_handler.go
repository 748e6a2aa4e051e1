package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	reviewsapp "babiloc/internal/app/handlers/reviews"
	"babiloc/internal/app/queries"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	ReservationID string `json:"reservation_id"`
	Rating        int    `json:"rating"`
	Scores        struct {
		Cleanliness   int `json:"cleanliness"`
		Accuracy      int `json:"accuracy"`
		Communication int `json:"communication"`
		Location      int `json:"location"`
		Value         int `json:"value"`
	} `json:"scores"`
	Recommend bool   `json:"recommend"`
	Comment   string `json:"comment"`
}

type replyReviewRequest struct {
	Text string `json:"text"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if !bindJSON(c, &req, false) {
		return
	}
	created, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.ReviewCreated](c.Request.Context(), h.Commands, reviewsapp.SubmitReviewCommand{
		Actor:         actor,
		PropertyID:    c.Param("id"),
		ReservationID: req.ReservationID,
		Rating:        req.Rating,
		Cleanliness:   req.Scores.Cleanliness,
		Accuracy:      req.Scores.Accuracy,
		Communication: req.Scores.Communication,
		Location:      req.Scores.Location,
		Value:         req.Scores.Value,
		Recommend:     req.Recommend,
		Comment:       req.Comment,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h ReviewsHandler) Reply(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req replyReviewRequest
	if !bindJSON(c, &req, false) {
		return
	}
	review, err := commands.Dispatch[reviewsapp.ReplyReviewCommand, dto.Review](c.Request.Context(), h.Commands, reviewsapp.ReplyReviewCommand{
		Actor:    actor,
		ReviewID: c.Param("id"),
		Text:     req.Text,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h ReviewsHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	result, err := queries.Ask[reviewsapp.ListReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, reviewsapp.ListReviewsQuery{
		PropertyID: c.Param("id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewsHandler) Eligibility(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reviewsapp.EligibilityQuery, dto.Eligibility](c.Request.Context(), h.Queries, reviewsapp.EligibilityQuery{
		Actor:      actor,
		PropertyID: c.Param("id"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewsHandler{}
