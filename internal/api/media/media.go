// Package media finds images, videos and transcripts for course subtopics.
package media

import "errors"

var (
	// ErrNotConfigured is returned when the provider has no credentials.
	ErrNotConfigured = errors.New("media provider is not configured")
	// ErrNoResults is returned when a search yields nothing usable.
	ErrNoResults = errors.New("no results")
)
