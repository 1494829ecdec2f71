// internal/ingest/specvalidator/validator.go
package specvalidator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks a record against the catalog item specification.
// Pure and synchronous: no I/O, fails closed, accumulates every violation
// so the submitter sees all spec errors at once.
type Validator struct {
	schema *gojsonschema.Schema
	logger logger.Logger
}

func New(log logger.Logger) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(itemSchema))
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	return &Validator{
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"component": "spec-validator"}),
	}, nil
}

// Validate returns a partial verdict covering the spec check only.
func (v *Validator) Validate(record models.Record) models.ValidationVerdict {
	var reasons []models.Reason

	reasons = append(reasons, v.validateSchema(record)...)
	reasons = append(reasons, v.validateGeometry(record.Geometry)...)
	reasons = append(reasons, v.validatePropertyTypes(record.Properties)...)

	if len(reasons) > 0 {
		v.logger.Debug("spec validation failed", map[string]interface{}{
			"itemId":      record.ID,
			"reasonCount": len(reasons),
		})
		return models.InvalidVerdict(reasons...)
	}
	return models.ValidVerdict()
}

func (v *Validator) validateSchema(record models.Record) []models.Reason {
	doc, err := json.Marshal(record)
	if err != nil {
		return []models.Reason{{
			Check:   models.CheckSpec,
			Code:    "UNSERIALIZABLE_RECORD",
			Message: err.Error(),
		}}
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return []models.Reason{{
			Check:   models.CheckSpec,
			Code:    "SCHEMA_VALIDATION_ERROR",
			Message: err.Error(),
		}}
	}

	reasons := make([]models.Reason, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		reasons = append(reasons, models.Reason{
			Check:   models.CheckSpec,
			Field:   resErr.Field(),
			Code:    schemaErrorCode(resErr.Type()),
			Message: resErr.Description(),
		})
	}
	return reasons
}

func schemaErrorCode(errType string) string {
	switch errType {
	case "required":
		return "MISSING_REQUIRED"
	case "invalid_type":
		return "INVALID_TYPE"
	case "string_gte", "array_min_items":
		return "EMPTY_VALUE"
	default:
		return "SCHEMA_" + strings.ToUpper(errType)
	}
}

// geometry is the minimal GeoJSON envelope needed for structural checks.
type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  json.RawMessage `json:"geometries"`
}

var geometryTypes = map[string]bool{
	"Point":              true,
	"MultiPoint":         true,
	"LineString":         true,
	"MultiLineString":    true,
	"Polygon":            true,
	"MultiPolygon":       true,
	"GeometryCollection": true,
}

func (v *Validator) validateGeometry(raw json.RawMessage) []models.Reason {
	if len(raw) == 0 {
		// Absence already reported by the schema check.
		return nil
	}

	var geom geometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return []models.Reason{{
			Check:   models.CheckSpec,
			Field:   "geometry",
			Code:    "MALFORMED_GEOMETRY",
			Message: fmt.Sprintf("geometry is not a valid GeoJSON object: %v", err),
		}}
	}

	if !geometryTypes[geom.Type] {
		return []models.Reason{{
			Check:   models.CheckSpec,
			Field:   "geometry.type",
			Code:    "INVALID_GEOMETRY_TYPE",
			Message: fmt.Sprintf("unknown geometry type %q", geom.Type),
		}}
	}

	if geom.Type == "GeometryCollection" {
		if len(geom.Geometries) == 0 {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.geometries",
				Code:    "MALFORMED_GEOMETRY",
				Message: "GeometryCollection requires a geometries member",
			}}
		}
		return nil
	}

	return v.validateCoordinates(geom)
}

func (v *Validator) validateCoordinates(geom geometry) []models.Reason {
	if len(geom.Coordinates) == 0 {
		return []models.Reason{{
			Check:   models.CheckSpec,
			Field:   "geometry.coordinates",
			Code:    "MALFORMED_GEOMETRY",
			Message: "geometry requires a coordinates member",
		}}
	}

	switch geom.Type {
	case "Point":
		var pos []float64
		if err := json.Unmarshal(geom.Coordinates, &pos); err != nil || len(pos) < 2 {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.coordinates",
				Code:    "MALFORMED_GEOMETRY",
				Message: "Point coordinates must be [lon, lat]",
			}}
		}
		if pos[0] < -180 || pos[0] > 180 || pos[1] < -90 || pos[1] > 90 {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.coordinates",
				Code:    "COORDINATES_OUT_OF_RANGE",
				Message: fmt.Sprintf("position [%v, %v] outside lon/lat bounds", pos[0], pos[1]),
			}}
		}
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil || len(rings) == 0 {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.coordinates",
				Code:    "MALFORMED_GEOMETRY",
				Message: "Polygon coordinates must be an array of linear rings",
			}}
		}
		for i, ring := range rings {
			if len(ring) < 4 {
				return []models.Reason{{
					Check:   models.CheckSpec,
					Field:   fmt.Sprintf("geometry.coordinates[%d]", i),
					Code:    "MALFORMED_GEOMETRY",
					Message: "linear ring requires at least 4 positions",
				}}
			}
			first, last := ring[0], ring[len(ring)-1]
			if len(first) < 2 || len(last) < 2 || first[0] != last[0] || first[1] != last[1] {
				return []models.Reason{{
					Check:   models.CheckSpec,
					Field:   fmt.Sprintf("geometry.coordinates[%d]", i),
					Code:    "UNCLOSED_RING",
					Message: "linear ring must close on its first position",
				}}
			}
		}
	default:
		// Structural depth checks for the remaining types
		var anyCoords interface{}
		if err := json.Unmarshal(geom.Coordinates, &anyCoords); err != nil {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.coordinates",
				Code:    "MALFORMED_GEOMETRY",
				Message: "coordinates member is not valid JSON",
			}}
		}
		if _, ok := anyCoords.([]interface{}); !ok {
			return []models.Reason{{
				Check:   models.CheckSpec,
				Field:   "geometry.coordinates",
				Code:    "MALFORMED_GEOMETRY",
				Message: "coordinates member must be an array",
			}}
		}
	}
	return nil
}

func (v *Validator) validatePropertyTypes(props map[string]interface{}) []models.Reason {
	names := make([]string, 0, len(declaredPropertyTypes))
	for name := range declaredPropertyTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	var reasons []models.Reason
	for _, name := range names {
		declared := declaredPropertyTypes[name]
		raw, ok := props[name]
		if !ok || raw == nil {
			continue
		}
		if !matchesType(raw, declared) {
			reasons = append(reasons, models.Reason{
				Check:   models.CheckSpec,
				Field:   "properties." + name,
				Code:    "INVALID_TYPE",
				Message: fmt.Sprintf("property %q must be of type %s, got %T", name, declared, raw),
			})
		}
	}
	return reasons
}

func matchesType(value interface{}, expectedType string) bool {
	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, int, int32, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	}
	return true
}
