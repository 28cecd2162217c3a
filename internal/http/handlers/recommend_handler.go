// Recommendation HTTP handlers.
//
// This file exposes the REST endpoint for recommending a product post:
//   - POST /products/posts/{id}/recommend
//
// Handlers in this file are transport-thin: they validate input, delegate to
// application services, and translate domain/service errors into HTTP results.
// A recommendation cites one or more reasons; repeating a reason the member
// already used for the same post is a conflict and nothing is recorded.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/als904204/detalk-api/internal/services"
)

// RecommendPostRequest is the JSON payload for recommending a post.
type RecommendPostRequest struct {
	// Reasons are the grounds for the recommendation (at least one).
	// Matching against previously used reasons is case-insensitive.
	Reasons []string `json:"reasons" binding:"required,min=1" example:"great design,cheap"`
	// Content is an optional free-text comment attached to each entry.
	Content string `json:"content" example:"Been using it for a month"`
}

// RecommendPost godoc
// @ID          recommendProductPost
// @Summary     Recommend a product post
// @Description Records one recommendation entry per reason and bumps the post's recommend count by the number of entries. A reason the member already used for this post yields 409 and records nothing.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-Member-ID  header  string  true  "Member ID"  example(7)
// @Param       id           path    int     true  "Post ID"    example(42)
// @Param       body         body    handlers.RecommendPostRequest true "Recommendation payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Missing member identity"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     409  {object} handlers.ErrorResponse "Already recommended for a cited reason"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /products/posts/{id}/recommend [post]
func (h *Handlers) RecommendPost(c *gin.Context) {
	mid := memberID(c)
	if mid == 0 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-Member-ID header required")
		return
	}
	postID, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a positive integer")
		return
	}

	var req RecommendPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one reason is required")
		return
	}

	if err := h.recSvc.Add(c.Request.Context(), postID, mid, req.Content, req.Reasons); err != nil {
		if services.IsDuplicateRecommendation(err) {
			fail(c, http.StatusConflict, ErrCodeAlreadyRecommended, err.Error())
			return
		}
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrEmptyReasons:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one reason is required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}
