package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/als904204/detalk-api/internal/domain"
	"github.com/als904204/detalk-api/internal/services"
)

// ---- stubs to satisfy handlers.New() dependencies ----

type stubPostSvc struct {
	create          func(ctx context.Context, writerID int64, in services.CreatePostInput) (int64, error)
	update          func(ctx context.Context, postID, editorID int64, content services.PostContent) error
	get             func(ctx context.Context, postID int64) (*domain.PostView, error)
	feed            func(ctx context.Context, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
	feedByWriter    func(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
	feedByRecommend func(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error)
}

func (s stubPostSvc) Create(ctx context.Context, writerID int64, in services.CreatePostInput) (int64, error) {
	if s.create != nil {
		return s.create(ctx, writerID, in)
	}
	return 1, nil
}

func (s stubPostSvc) Update(ctx context.Context, postID, editorID int64, content services.PostContent) error {
	if s.update != nil {
		return s.update(ctx, postID, editorID, content)
	}
	return nil
}

func (s stubPostSvc) Get(ctx context.Context, postID int64) (*domain.PostView, error) {
	if s.get != nil {
		return s.get(ctx, postID)
	}
	return &domain.PostView{ID: postID}, nil
}

func (s stubPostSvc) Feed(ctx context.Context, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
	if s.feed != nil {
		return s.feed(ctx, pageSize, cursor)
	}
	return &services.CursorPage[domain.PostView]{Items: []domain.PostView{}}, nil
}

func (s stubPostSvc) FeedByWriter(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
	if s.feedByWriter != nil {
		return s.feedByWriter(ctx, memberID, pageSize, cursor)
	}
	return &services.CursorPage[domain.PostView]{Items: []domain.PostView{}}, nil
}

func (s stubPostSvc) FeedByRecommender(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
	if s.feedByRecommend != nil {
		return s.feedByRecommend(ctx, memberID, pageSize, cursor)
	}
	return &services.CursorPage[domain.PostView]{Items: []domain.PostView{}}, nil
}

type stubRecSvc struct {
	add func(ctx context.Context, postID, memberID int64, content string, reasons []string) error
}

func (s stubRecSvc) Add(ctx context.Context, postID, memberID int64, content string, reasons []string) error {
	if s.add != nil {
		return s.add(ctx, postID, memberID, content, reasons)
	}
	return nil
}

func newPostRouter(post PostService, rec RecommendService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(post, rec)
	r := gin.New()
	r.POST("/products/posts", h.CreatePost)
	r.GET("/products/posts", h.ListPosts)
	r.GET("/products/posts/:id", h.GetPost)
	r.PUT("/products/posts/:id", h.UpdatePost)
	r.GET("/members/:id/posts", h.ListMemberPosts)
	r.GET("/members/:id/recommended-posts", h.ListMemberRecommendedPosts)
	return r
}

const validCreateBody = `{
	"submission_key": "fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b",
	"product_name": "Acme",
	"is_maker": true,
	"title": "Acme Analytics",
	"pricing_plan": "Free",
	"tags": ["analytics"]
}`

// ---- tests ----

func TestCreatePost_Success201(t *testing.T) {
	var gotWriter int64
	var gotKey string
	post := stubPostSvc{create: func(ctx context.Context, writerID int64, in services.CreatePostInput) (int64, error) {
		gotWriter = writerID
		gotKey = in.SubmissionKey
		return 42, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/posts", bytes.NewBufferString(validCreateBody))
	req.Header.Set("X-Member-ID", "7")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp CreatePostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ID != 42 {
		t.Fatalf("expected post id 42, got %d", resp.ID)
	}
	if gotWriter != 7 {
		t.Fatalf("expected writer 7, got %d", gotWriter)
	}
	if gotKey != "fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b" {
		t.Fatalf("submission key not passed through: %q", gotKey)
	}
}

func TestCreatePost_MissingIdentity401(t *testing.T) {
	post := stubPostSvc{create: func(context.Context, int64, services.CreatePostInput) (int64, error) {
		t.Fatalf("service should not be called without identity")
		return 0, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products/posts", bytes.NewBufferString(validCreateBody))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCreatePost_BindingError400(t *testing.T) {
	post := stubPostSvc{create: func(context.Context, int64, services.CreatePostInput) (int64, error) {
		t.Fatalf("service should not be called on binding error")
		return 0, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	// Missing required fields.
	req := httptest.NewRequest(http.MethodPost, "/products/posts", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("X-Member-ID", "7")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreatePost_ErrorMappings(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid_key", services.ErrInvalidSubmissionKey, http.StatusBadRequest},
		{"unknown_plan", services.ErrPricingPlanNotFound, http.StatusBadRequest},
		{"duplicate", services.ErrDuplicateSubmission, http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			post := stubPostSvc{create: func(context.Context, int64, services.CreatePostInput) (int64, error) {
				return 0, tc.err
			}}
			r := newPostRouter(post, stubRecSvc{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/products/posts", bytes.NewBufferString(validCreateBody))
			req.Header.Set("X-Member-ID", "7")
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d. body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Code == "" || er.Message == "" {
				t.Fatalf("error envelope missing fields: %+v", er)
			}
		})
	}
}

func TestGetPost_NotFound404(t *testing.T) {
	post := stubPostSvc{get: func(context.Context, int64) (*domain.PostView, error) {
		return nil, services.ErrPostNotFound
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/posts/99", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetPost_BadID400(t *testing.T) {
	r := newPostRouter(stubPostSvc{}, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/posts/abc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListPosts_PassesSizeAndCursor(t *testing.T) {
	var gotSize int
	var gotCursor *int64
	post := stubPostSvc{feed: func(ctx context.Context, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
		gotSize = pageSize
		gotCursor = cursor
		next := int64(30)
		return &services.CursorPage[domain.PostView]{
			Items:      []domain.PostView{{ID: 40}, {ID: 30}},
			NextCursor: &next,
		}, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/posts?size=2&cursor=50", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotSize != 2 {
		t.Fatalf("expected size 2, got %d", gotSize)
	}
	if gotCursor == nil || *gotCursor != 50 {
		t.Fatalf("expected cursor 50, got %v", gotCursor)
	}

	var page services.CursorPage[domain.PostView]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == nil || *page.NextCursor != 30 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestListPosts_PageSizeExceeded400(t *testing.T) {
	post := stubPostSvc{feed: func(context.Context, int, *int64) (*services.CursorPage[domain.PostView], error) {
		return nil, services.ErrPageSizeExceeded
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/posts?size=100", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdatePost_ErrorMappings(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusNoContent},
		{"not_found", services.ErrPostNotFound, http.StatusNotFound},
		{"forbidden", services.ErrForbiddenEdit, http.StatusForbidden},
		{"unknown_plan", services.ErrPricingPlanNotFound, http.StatusBadRequest},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			post := stubPostSvc{update: func(ctx context.Context, postID, editorID int64, content services.PostContent) error {
				if postID != 42 || editorID != 7 {
					t.Fatalf("args mismatch: post=%d editor=%d", postID, editorID)
				}
				return tc.err
			}}
			r := newPostRouter(post, stubRecSvc{})

			body := bytes.NewBufferString(`{"title":"v2","pricing_plan":"Paid"}`)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/products/posts/42", body)
			req.Header.Set("X-Member-ID", "7")
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d. body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestListMemberPosts_UsesPathID(t *testing.T) {
	var gotMember int64
	post := stubPostSvc{feedByWriter: func(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
		gotMember = memberID
		return &services.CursorPage[domain.PostView]{Items: []domain.PostView{}}, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members/9/posts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotMember != 9 {
		t.Fatalf("expected member 9, got %d", gotMember)
	}
}

func TestListMemberRecommendedPosts_ReasonInPayload(t *testing.T) {
	post := stubPostSvc{feedByRecommend: func(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*services.CursorPage[domain.PostView], error) {
		return &services.CursorPage[domain.PostView]{
			Items: []domain.PostView{{ID: 1, Reason: "cheap", Tags: []string{}, Images: []domain.Media{}, URLs: []string{}}},
		}, nil
	}}
	r := newPostRouter(post, stubRecSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/members/9/recommended-posts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var page services.CursorPage[domain.PostView]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Reason != "cheap" {
		t.Fatalf("reason missing from payload: %+v", page)
	}
}
