// Package services defines the business logic for product posts and
// recommendations. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPostNotFound indicates that the referenced product post does not exist.
	ErrPostNotFound = errors.New("product post not found")

	// ErrPricingPlanNotFound is returned when a post names a pricing plan
	// outside the seeded catalog.
	ErrPricingPlanNotFound = errors.New("pricing plan not found")

	// ErrDuplicateSubmission is returned when a create request replays an
	// already-consumed submission key. It is an expected outcome of a client
	// retry, not a server fault.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrInvalidSubmissionKey is returned when the submission key is missing
	// or not a UUID.
	ErrInvalidSubmissionKey = errors.New("submission key must be a UUID")

	// ErrForbiddenEdit is returned when a member tries to update a post they
	// do not own.
	ErrForbiddenEdit = errors.New("cannot edit this post")

	// ErrEmptyReasons is returned when a recommendation carries no reasons.
	ErrEmptyReasons = errors.New("at least one reason is required")

	// ErrEmptyTitle is returned when a post's content has a blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrEmptyProductName is returned when a create request has a blank
	// product name.
	ErrEmptyProductName = errors.New("product name is empty")

	// ErrPageSizeExceeded is returned when a feed request asks for more
	// items than the configured bound.
	ErrPageSizeExceeded = errors.New("page size exceeds the maximum")
)

// DuplicateRecommendationError reports which (member, post, reason) triple
// already exists in the ledger, so clients can name the offending reason.
type DuplicateRecommendationError struct {
	MemberID int64
	PostID   int64
	Reason   string
}

// Error implements the error interface.
func (e *DuplicateRecommendationError) Error() string {
	return fmt.Sprintf("member %d already recommended post %d for %q", e.MemberID, e.PostID, e.Reason)
}

// IsDuplicateRecommendation reports whether err is a duplicate-recommendation
// failure, regardless of whether the pre-check or the storage constraint
// caught it.
func IsDuplicateRecommendation(err error) bool {
	var dup *DuplicateRecommendationError
	return errors.As(err, &dup)
}
