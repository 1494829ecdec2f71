// internal/models/verdict.go
package models

// Check names a validation stage. Reasons are merged in the fixed order
// spec, collection, asset so verdicts are reproducible.
type Check string

const (
	CheckSpec       Check = "spec"
	CheckCollection Check = "collection"
	CheckAsset      Check = "asset"

	// CheckStore marks reasons raised at commit time rather than during
	// validation, such as duplicate item ids.
	CheckStore Check = "store"
)

// Reason is one structured validation failure.
type Reason struct {
	Check   Check  `json:"check"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationVerdict is the outcome of running a Record through the pipeline.
// Reasons are never discarded, even when later checks also fail.
type ValidationVerdict struct {
	Valid   bool     `json:"valid"`
	Reasons []Reason `json:"reasons,omitempty"`
}

// ValidVerdict returns a passing partial verdict.
func ValidVerdict() ValidationVerdict {
	return ValidationVerdict{Valid: true}
}

// InvalidVerdict returns a failing partial verdict with the given reasons.
func InvalidVerdict(reasons ...Reason) ValidationVerdict {
	return ValidationVerdict{Valid: false, Reasons: reasons}
}

// Merge combines partial verdicts in argument order. The result is valid
// only if every part is valid; reasons concatenate in order.
func Merge(parts ...ValidationVerdict) ValidationVerdict {
	out := ValidationVerdict{Valid: true}
	for _, p := range parts {
		if !p.Valid {
			out.Valid = false
		}
		out.Reasons = append(out.Reasons, p.Reasons...)
	}
	return out
}
