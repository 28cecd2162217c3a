// Product post HTTP handlers.
//
// This file exposes REST endpoints for product-post resources:
//   - POST /products/posts                       (publish a post)
//   - GET  /products/posts                       (global feed, cursor-paginated)
//   - GET  /products/posts/{id}                  (one post)
//   - PUT  /products/posts/{id}                  (edit, new content version)
//   - GET  /members/{id}/posts                   (posts written by a member)
//   - GET  /members/{id}/recommended-posts       (posts a member recommended)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate domain/service errors into HTTP responses. Feed endpoints use
// a forward-only cursor (the last post ID of the previous page) rather than
// page numbers.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/als904204/detalk-api/internal/domain"
	"github.com/als904204/detalk-api/internal/services"
	"github.com/als904204/detalk-api/internal/utils"
)

//
// Service contracts (context-aware)
//

// PostService defines product-post lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PostService interface {
	// Create publishes a new post for writerID and returns the new post ID.
	Create(ctx context.Context, writerID int64, in services.CreatePostInput) (int64, error)
	// Update writes a new content version for postID on behalf of editorID.
	Update(ctx context.Context, postID, editorID int64, content services.PostContent) error
	// Get returns the full projection of one post.
	Get(ctx context.Context, postID int64) (*domain.PostView, error)
	// Feed returns the global feed page, most recent first.
	Feed(ctx context.Context, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
	// FeedByWriter returns the feed page of posts owned by memberID.
	FeedByWriter(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
	// FeedByRecommender returns posts memberID has recommended.
	FeedByRecommender(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
}

// RecommendService defines recommendation operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecommendService interface {
	// Add records memberID's recommendation of postID, one entry per reason.
	Add(ctx context.Context, postID, memberID int64, content string, reasons []string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for product posts and recommendations.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	postSvc PostService
	recSvc  RecommendService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(postSvc PostService, recSvc RecommendService) *Handlers {
	return &Handlers{postSvc: postSvc, recSvc: recSvc}
}

// memberID extracts the calling member's ID from Gin context (set by upstream
// middleware) and falls back to the "X-Member-ID" header. It returns 0 when
// no valid identity is present; write endpoints treat that as unauthorized.
func memberID(c *gin.Context) int64 {
	if v, ok := c.Get("memberID"); ok {
		if s, ok := v.(string); ok {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
				return id
			}
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-Member-ID")); h != "" {
			if id, err := strconv.ParseInt(h, 10, 64); err == nil && id > 0 {
				return id
			}
		}
	}
	return 0
}

//
// DTOs
//

// PostContentRequest is the editable portion of a post shared by create and
// update payloads.
type PostContentRequest struct {
	// Title is the headline shown in the feed (1–255 chars).
	Title       string `json:"title" binding:"required,min=1,max=255" example:"Acme Analytics"`
	Description string `json:"description" example:"Self-serve product analytics"`
	// PricingPlan must name an existing plan from the catalog.
	PricingPlan string `json:"pricing_plan" binding:"required" example:"Free"`
	// Tags are free-form labels; matching is case-insensitive.
	Tags []string `json:"tags" example:"analytics,saas"`
	// ImageIDs reference uploaded attachment files, in display order.
	ImageIDs []int64  `json:"image_ids"`
	URLs     []string `json:"urls" example:"https://acme.example"`
}

// CreatePostRequest is the JSON payload for publishing a product post.
type CreatePostRequest struct {
	// SubmissionKey is a client-generated UUID; resubmitting the same key
	// never creates a second post.
	SubmissionKey string `json:"submission_key" binding:"required,uuid" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	// ProductName identifies (or creates) the product the post is about.
	ProductName string `json:"product_name" binding:"required,min=1,max=255" example:"Acme"`
	// IsMaker marks the author as a maker of the product.
	IsMaker bool `json:"is_maker" example:"true"`

	PostContentRequest
}

// CreatePostResponse returns the identifier of the newly created post.
type CreatePostResponse struct {
	ID int64 `json:"id" example:"42"`
}

// feedParams reads the optional ?size and ?cursor query parameters.
// Size validation (default, upper bound) is owned by the service.
func feedParams(c *gin.Context) (pageSize int, cursor *int64) {
	pageSize = utils.AtoiDefault(c.Query("size"), 0)
	cursor = utils.ParseCursor(c.Query("cursor"))
	return
}

// pathID parses a positive int64 path parameter, returning ok=false when the
// value is missing or malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

//
// Handlers
//

// CreatePost godoc
// @ID          createProductPost
// @Summary     Publish a product post
// @Description Creates a post with its initial content version. Resubmitting the same submission key returns 409 without creating a duplicate.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-Member-ID  header  string  true  "Member ID"  example(7)
// @Param       body         body    handlers.CreatePostRequest  true  "Create post payload"
//
// @Success     201  {object} handlers.CreatePostResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Missing member identity"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate submission"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	mid := memberID(c)
	if mid == 0 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-Member-ID header required")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	id, err := h.postSvc.Create(c.Request.Context(), mid, services.CreatePostInput{
		SubmissionKey: req.SubmissionKey,
		ProductName:   req.ProductName,
		IsMaker:       req.IsMaker,
		PostContent:   toPostContent(req.PostContentRequest),
	})
	if err != nil {
		switch err {
		case services.ErrInvalidSubmissionKey:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submission_key must be a UUID")
		case services.ErrEmptyProductName, services.ErrEmptyTitle:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrPricingPlanNotFound:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown pricing plan")
		case services.ErrDuplicateSubmission:
			fail(c, http.StatusConflict, ErrCodeDuplicateSubmission, "submission key already used")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, CreatePostResponse{ID: id})
}

// GetPost godoc
// @ID          getProductPost
// @Summary     Get one product post
// @Description Returns the post's current content version with author, tags, images, links, and recommend count.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  int  true  "Post ID"  example(42)
//
// @Success     200  {object} domain.PostView
// @Failure     400  {object} handlers.ErrorResponse "Invalid post ID"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a positive integer")
		return
	}

	view, err := h.postSvc.Get(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrPostNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	ok(c, http.StatusOK, view)
}

// ListPosts godoc
// @ID          listProductPosts
// @Summary     List the global feed (cursor-paginated)
// @Description Returns a page of posts, most recent first. Pass next_cursor from the previous page to continue.
// @Tags        Posts
// @Produce     json
//
// @Param       size    query  int  false "Items per page"                  minimum(1) maximum(20) default(5)
// @Param       cursor  query  int  false "Last post ID of previous page"   example(42)
//
// @Success     200  {object} services.CursorPage[domain.PostView]
// @Failure     400  {object} handlers.ErrorResponse "Page size out of range"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	size, cursor := feedParams(c)

	page, err := h.postSvc.Feed(c.Request.Context(), size, cursor)
	if err != nil {
		failFeed(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// UpdatePost godoc
// @ID          updateProductPost
// @Summary     Edit a product post
// @Description Writes a new content version and makes it the one readers see. Earlier versions are retained. Only the author may edit.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       X-Member-ID  header  string  true  "Member ID"  example(7)
// @Param       id           path    int     true  "Post ID"    example(42)
// @Param       body         body    handlers.PostContentRequest  true  "New content"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Missing member identity"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	mid := memberID(c)
	if mid == 0 {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-Member-ID header required")
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a positive integer")
		return
	}

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.postSvc.Update(c.Request.Context(), id, mid, toPostContent(req)); err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrForbiddenEdit:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can edit this post")
		case services.ErrEmptyTitle:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrPricingPlanNotFound:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown pricing plan")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}

// ListMemberPosts godoc
// @ID          listMemberPosts
// @Summary     List posts written by a member (cursor-paginated)
// @Tags        Members
// @Produce     json
//
// @Param       id      path   int  true  "Member ID"                       example(7)
// @Param       size    query  int  false "Items per page"                  minimum(1) maximum(20) default(5)
// @Param       cursor  query  int  false "Last post ID of previous page"   example(42)
//
// @Success     200  {object} services.CursorPage[domain.PostView]
// @Failure     400  {object} handlers.ErrorResponse "Invalid member ID or page size"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /members/{id}/posts [get]
func (h *Handlers) ListMemberPosts(c *gin.Context) {
	mid, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "member id must be a positive integer")
		return
	}
	size, cursor := feedParams(c)

	page, err := h.postSvc.FeedByWriter(c.Request.Context(), mid, size, cursor)
	if err != nil {
		failFeed(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// ListMemberRecommendedPosts godoc
// @ID          listMemberRecommendedPosts
// @Summary     List posts a member has recommended (cursor-paginated)
// @Description Each item carries the member's own recommendation reason; a post recommended for several reasons appears once per reason.
// @Tags        Members
// @Produce     json
//
// @Param       id      path   int  true  "Member ID"                       example(7)
// @Param       size    query  int  false "Items per page"                  minimum(1) maximum(20) default(5)
// @Param       cursor  query  int  false "Last post ID of previous page"   example(42)
//
// @Success     200  {object} services.CursorPage[domain.PostView]
// @Failure     400  {object} handlers.ErrorResponse "Invalid member ID or page size"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /members/{id}/recommended-posts [get]
func (h *Handlers) ListMemberRecommendedPosts(c *gin.Context) {
	mid, valid := pathID(c, "id")
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "member id must be a positive integer")
		return
	}
	size, cursor := feedParams(c)

	page, err := h.postSvc.FeedByRecommender(c.Request.Context(), mid, size, cursor)
	if err != nil {
		failFeed(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// failFeed maps feed read errors to HTTP results.
func failFeed(c *gin.Context, err error) {
	if err == services.ErrPageSizeExceeded {
		fail(c, http.StatusBadRequest, ErrCodePageSizeExceeded, "size exceeds the maximum page size")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
}

// toPostContent converts the transport DTO into the service-layer content.
func toPostContent(req PostContentRequest) services.PostContent {
	return services.PostContent{
		Title:       req.Title,
		Description: req.Description,
		PricingPlan: req.PricingPlan,
		Tags:        req.Tags,
		ImageIDs:    req.ImageIDs,
		URLs:        req.URLs,
	}
}
