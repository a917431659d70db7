package notes

import (
	"strings"
	"unicode/utf8"

	"github.com/tphakala/notekeeper/internal/datastore/repository"
)

// Field limits, counted in Unicode code points.
const (
	MaxTitleLength   = 200
	MaxContentLength = 10_000
)

// normalizeTitle checks the raw title and returns it trimmed. The length
// limit applies to the raw value.
func normalizeTitle(raw string, verr *ValidationError) string {
	n := utf8.RuneCountInString(raw)
	switch {
	case n == 0:
		verr.add("title", "must not be empty")
		return ""
	case n > MaxTitleLength:
		verr.add("title", "must be at most 200 characters")
		return ""
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		verr.add("title", "Title must not be blank")
	}
	return trimmed
}

// checkContent validates content, which is stored untrimmed
func checkContent(raw string, verr *ValidationError) {
	n := utf8.RuneCountInString(raw)
	switch {
	case n == 0:
		verr.add("content", "must not be empty")
	case n > MaxContentLength:
		verr.add("content", "must be at most 10000 characters")
	case strings.TrimSpace(raw) == "":
		verr.add("content", "Content must not be blank")
	}
}

// ValidateCreate validates a create request and returns the normalized input.
func ValidateCreate(in CreateInput) (CreateInput, error) {
	verr := &ValidationError{}
	in.Title = normalizeTitle(in.Title, verr)
	checkContent(in.Content, verr)
	return in, verr.orNil()
}

// ValidateUpdate validates the fields present in an update request. An
// update without fields is valid here; Update rejects it after locating the
// note.
func ValidateUpdate(in UpdateInput) (UpdateInput, error) {
	verr := &ValidationError{}
	if in.Title != nil {
		title := normalizeTitle(*in.Title, verr)
		in.Title = &title
	}
	if in.Content != nil {
		checkContent(*in.Content, verr)
	}
	return in, verr.orNil()
}

// ValidatePage checks pagination bounds.
func ValidatePage(limit, offset int) error {
	verr := &ValidationError{}
	if limit < repository.MinLimit || limit > repository.MaxLimit {
		verr.add("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		verr.add("offset", "must be greater than or equal to 0")
	}
	return verr.orNil()
}
