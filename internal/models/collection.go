// internal/models/collection.go
package models

// Collection is a named grouping records must belong to.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`
}
