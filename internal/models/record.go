// internal/models/record.go
package models

import "encoding/json"

// Record is one catalog item payload submitted for ingestion.
// Immutable once submitted; SubmissionID is assigned by the caller.
type Record struct {
	ID           string                 `json:"id"`
	Collection   string                 `json:"collection"`
	Geometry     json.RawMessage        `json:"geometry"`
	Properties   map[string]interface{} `json:"properties"`
	Assets       []AssetReference       `json:"assets"`
	SubmissionID string                 `json:"submissionId"`
}

// AssetReference is a location plus a role label, owned by exactly one Record.
type AssetReference struct {
	Href  string   `json:"href"`
	Title string   `json:"title,omitempty"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Clone returns a deep copy so downstream stages never share mutable state
// with the caller's payload.
func (r Record) Clone() Record {
	out := r
	if r.Geometry != nil {
		out.Geometry = append(json.RawMessage(nil), r.Geometry...)
	}
	if r.Properties != nil {
		out.Properties = make(map[string]interface{}, len(r.Properties))
		for k, v := range r.Properties {
			out.Properties[k] = v
		}
	}
	if r.Assets != nil {
		out.Assets = append([]AssetReference(nil), r.Assets...)
	}
	return out
}
