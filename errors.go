package goGallery

import "errors"

var (
	// ErrEngineNotReady is returned by methods of a nil or closed Gallery.
	ErrEngineNotReady = errors.New("gallery not ready")
	// ErrUnauthorized wraps every current-user fetch failure surfaced by
	// Gallery methods outside of navigation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrVisitorRequired is returned when a Visitor has no session ID.
	ErrVisitorRequired = errors.New("visitor session id required")
	// ErrUserRecordNoID is returned when the identity record carries no id
	// to list images by.
	ErrUserRecordNoID = errors.New("user record has no id")
	// ErrImagesUnavailable is returned by ListImages when no repository was
	// configured.
	ErrImagesUnavailable = errors.New("image repository not configured")
	// ErrBuilderUsed is returned by a second Build call.
	ErrBuilderUsed = errors.New("builder already used")
)
