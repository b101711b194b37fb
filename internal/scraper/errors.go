package scraper

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrFetchFailed matches every failure to obtain a page.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrNotFound means the upstream answered that the page does not exist.
	ErrNotFound = errors.New("page not found")

	// ErrUnavailable means the upstream could not be reached or refused to serve.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrSchemaChanged means the page no longer has the expected layout.
	ErrSchemaChanged = errors.New("upstream schema changed")

	// ErrMarkerNotFound is returned when a delimiter is missing from the text.
	ErrMarkerNotFound = errors.New("marker not found")
)

// FetchError describes a failed GET. It matches ErrFetchFailed and exactly
// one of ErrNotFound or ErrUnavailable.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

// NotFound reports whether the upstream said the page does not exist.
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

func (e *FetchError) Unwrap() []error {
	kind := ErrUnavailable
	if e.NotFound() {
		kind = ErrNotFound
	}
	errs := []error{ErrFetchFailed, kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// SchemaError lists every layout problem found on a page.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSchemaChanged, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaChanged
}

// FieldError reports one profile rule that did not match.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ProfileError collects the failures of required profile rules. Each rule is
// evaluated independently so every broken marker is reported at once.
type ProfileError struct {
	Fields []*FieldError
}

func (e *ProfileError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v: %s", ErrSchemaChanged, strings.Join(msgs, "; "))
}

func (e *ProfileError) Unwrap() []error {
	errs := []error{ErrSchemaChanged}
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}
