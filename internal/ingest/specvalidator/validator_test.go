// internal/ingest/specvalidator/validator_test.go
package specvalidator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createValidRecord() models.Record {
	return models.Record{
		ID:         "item-001",
		Collection: "sentinel-2-l2a",
		Geometry:   json.RawMessage(`{"type":"Point","coordinates":[12.5,41.9]}`),
		Properties: map[string]interface{}{
			"datetime": "2024-03-01T00:00:00Z",
		},
		Assets: []models.AssetReference{
			{Href: "https://example.com/data/item-001.tif", Roles: []string{"data"}},
		},
	}
}

func newValidator(t *testing.T) *Validator {
	v, err := New(logger.NewTestLogger(t))
	require.NoError(t, err)
	return v
}

func reasonCodes(verdict models.ValidationVerdict) []string {
	codes := make([]string, 0, len(verdict.Reasons))
	for _, r := range verdict.Reasons {
		codes = append(codes, r.Code)
	}
	return codes
}

// ==========================
// Core Functionality Tests
// ==========================

func TestValidator_Validate_ValidRecord(t *testing.T) {
	v := newValidator(t)

	verdict := v.Validate(createValidRecord())

	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Reasons)
}

func TestValidator_Validate_MissingRequiredFields(t *testing.T) {
	v := newValidator(t)

	record := createValidRecord()
	record.ID = ""
	record.Assets = nil

	verdict := v.Validate(record)

	assert.False(t, verdict.Valid)
	assert.NotEmpty(t, verdict.Reasons)
	for _, reason := range verdict.Reasons {
		assert.Equal(t, models.CheckSpec, reason.Check)
	}
}

func TestValidator_Validate_MissingDatetime(t *testing.T) {
	v := newValidator(t)

	record := createValidRecord()
	record.Properties = map[string]interface{}{"title": "no datetime here"}

	verdict := v.Validate(record)

	assert.False(t, verdict.Valid)
	assert.Contains(t, reasonCodes(verdict), "MISSING_REQUIRED")
}

func TestValidator_Validate_AssetWithoutHref(t *testing.T) {
	v := newValidator(t)

	record := createValidRecord()
	record.Assets = []models.AssetReference{{Title: "thumbnail"}}

	verdict := v.Validate(record)

	assert.False(t, verdict.Valid)
}

func TestValidator_Validate_AccumulatesAllReasons(t *testing.T) {
	v := newValidator(t)

	record := createValidRecord()
	record.Properties = map[string]interface{}{
		"datetime": "2024-03-01T00:00:00Z",
		"gsd":      "ten meters",
		"platform": 42.0,
	}
	record.Geometry = json.RawMessage(`{"type":"Point","coordinates":[200.0,95.0]}`)

	verdict := v.Validate(record)

	assert.False(t, verdict.Valid)
	// Out-of-range point plus two mistyped properties.
	assert.Len(t, verdict.Reasons, 3)
	assert.Contains(t, reasonCodes(verdict), "COORDINATES_OUT_OF_RANGE")
	assert.Contains(t, reasonCodes(verdict), "INVALID_TYPE")
}

func TestValidator_Validate_DeterministicReasonOrder(t *testing.T) {
	v := newValidator(t)

	record := createValidRecord()
	record.Properties = map[string]interface{}{
		"datetime": "2024-03-01T00:00:00Z",
		"platform": 42.0,
		"gsd":      "ten meters",
		"mission":  false,
	}

	first := v.Validate(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Reasons, v.Validate(record).Reasons)
	}
}

// ==========================
// Geometry Tests
// ==========================

func TestValidator_Validate_Geometry(t *testing.T) {
	tests := []struct {
		name         string
		geometry     string
		expectValid  bool
		expectedCode string
	}{
		{
			name:        "valid point",
			geometry:    `{"type":"Point","coordinates":[0.0,0.0]}`,
			expectValid: true,
		},
		{
			name:        "valid polygon",
			geometry:    `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`,
			expectValid: true,
		},
		{
			name:        "valid geometry collection",
			geometry:    `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,1]}]}`,
			expectValid: true,
		},
		{
			name:         "unknown geometry type",
			geometry:     `{"type":"Circle","coordinates":[0,0]}`,
			expectValid:  false,
			expectedCode: "INVALID_GEOMETRY_TYPE",
		},
		{
			name:         "point longitude out of range",
			geometry:     `{"type":"Point","coordinates":[181.0,10.0]}`,
			expectValid:  false,
			expectedCode: "COORDINATES_OUT_OF_RANGE",
		},
		{
			name:         "point latitude out of range",
			geometry:     `{"type":"Point","coordinates":[10.0,-91.0]}`,
			expectValid:  false,
			expectedCode: "COORDINATES_OUT_OF_RANGE",
		},
		{
			name:         "point missing latitude",
			geometry:     `{"type":"Point","coordinates":[10.0]}`,
			expectValid:  false,
			expectedCode: "MALFORMED_GEOMETRY",
		},
		{
			name:         "polygon ring too short",
			geometry:     `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`,
			expectValid:  false,
			expectedCode: "MALFORMED_GEOMETRY",
		},
		{
			name:         "polygon ring not closed",
			geometry:     `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[2,2]]]}`,
			expectValid:  false,
			expectedCode: "UNCLOSED_RING",
		},
		{
			name:         "geometry collection without geometries",
			geometry:     `{"type":"GeometryCollection"}`,
			expectValid:  false,
			expectedCode: "MALFORMED_GEOMETRY",
		},
		{
			name:         "missing coordinates",
			geometry:     `{"type":"LineString"}`,
			expectValid:  false,
			expectedCode: "MALFORMED_GEOMETRY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t)

			record := createValidRecord()
			record.Geometry = json.RawMessage(tt.geometry)

			verdict := v.Validate(record)

			if tt.expectValid {
				assert.True(t, verdict.Valid, "reasons: %v", verdict.Reasons)
			} else {
				assert.False(t, verdict.Valid)
				assert.Contains(t, reasonCodes(verdict), tt.expectedCode)
			}
		})
	}
}

// ==========================
// Property Type Tests
// ==========================

func TestValidator_Validate_PropertyTypes(t *testing.T) {
	tests := []struct {
		name        string
		properties  map[string]interface{}
		expectValid bool
	}{
		{
			name: "typed properties match",
			properties: map[string]interface{}{
				"datetime":    "2024-03-01T00:00:00Z",
				"gsd":         10.0,
				"platform":    "sentinel-2b",
				"instruments": []interface{}{"msi"},
			},
			expectValid: true,
		},
		{
			name: "unknown properties pass through",
			properties: map[string]interface{}{
				"datetime":      "2024-03-01T00:00:00Z",
				"custom:weight": 3.14,
				"proj:epsg":     32633.0,
			},
			expectValid: true,
		},
		{
			name: "gsd as string",
			properties: map[string]interface{}{
				"datetime": "2024-03-01T00:00:00Z",
				"gsd":      "10m",
			},
			expectValid: false,
		},
		{
			name: "instruments as string",
			properties: map[string]interface{}{
				"datetime":    "2024-03-01T00:00:00Z",
				"instruments": "msi",
			},
			expectValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t)

			record := createValidRecord()
			record.Properties = tt.properties

			verdict := v.Validate(record)

			assert.Equal(t, tt.expectValid, verdict.Valid, "reasons: %v", verdict.Reasons)
		})
	}
}
