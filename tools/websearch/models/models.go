package models

import "fmt"

// Result is one web search hit
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// StatusError is a non-2xx response from a search provider
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

// Transient reports whether the status is a rate-limit or availability
// signal worth retrying.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case 429, 500, 503, 504:
		return true
	}
	return false
}
