package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/models"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks raw documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schema map[string]interface{}) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate reports every schema violation in doc. Errors are sorted by field so
// callers get a stable first error.
func (v *Validator) Validate(doc map[string]interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		code := strings.ToUpper(desc.Type())
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
			code = string(apperrors.ErrCodeMissingField)
		}
		errs = append(errs, ValidationError{Field: field, Message: desc.Description(), Code: code})
	}
	sort.SliceStable(errs, func(i, j int) bool {
		// missing fields first, then by name
		mi := errs[i].Code == string(apperrors.ErrCodeMissingField)
		mj := errs[j].Code == string(apperrors.ErrCodeMissingField)
		if mi != mj {
			return mi
		}
		return errs[i].Field < errs[j].Field
	})

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// Err converts the result into the application error taxonomy: any missing field
// wins over other violations.
func (vr *ValidationResult) Err() error {
	if vr.Valid || len(vr.Errors) == 0 {
		return nil
	}
	first := vr.Errors[0]
	if first.Code == string(apperrors.ErrCodeMissingField) {
		return apperrors.NewMissingFieldError(first.Field)
	}
	return apperrors.NewInvalidInputError(strings.Join(vr.GetErrorMessages(), "; "))
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// PredictionRequestSchema describes the raw single-prediction payload. Item_Identifier
// is informational and therefore optional.
func PredictionRequestSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"required": []interface{}{
			models.ColOutletIdentifier,
			models.ColItemType,
			models.ColItemFatContent,
			models.ColItemVisibility,
			models.ColItemMRP,
		},
		"properties": map[string]interface{}{
			models.ColOutletIdentifier: map[string]interface{}{"type": "string", "minLength": 1},
			models.ColItemIdentifier:   map[string]interface{}{"type": "string"},
			models.ColItemType:         map[string]interface{}{"type": "string", "enum": enumOf(models.ItemTypes())},
			models.ColItemFatContent:   map[string]interface{}{"type": "string", "enum": enumOf(models.FatContents())},
			models.ColItemVisibility:   map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			models.ColItemMRP:          map[string]interface{}{"type": "number", "minimum": 0},
		},
	}
}

func enumOf[T ~string](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var (
	requestValidator     *Validator
	requestValidatorErr  error
	requestValidatorOnce sync.Once
)

func predictionValidator() (*Validator, error) {
	requestValidatorOnce.Do(func() {
		requestValidator, requestValidatorErr = NewValidator(PredictionRequestSchema())
	})
	return requestValidator, requestValidatorErr
}

// ParsePredictionRequest validates a raw payload (HTTP body or job variables) and
// converts it into a typed request. An empty Outlet_Identifier is reported as missing.
func ParsePredictionRequest(doc map[string]interface{}) (models.PredictionRequest, error) {
	if id, ok := doc[models.ColOutletIdentifier].(string); ok && id == "" {
		return models.PredictionRequest{}, apperrors.NewMissingFieldError(models.ColOutletIdentifier)
	}

	v, err := predictionValidator()
	if err != nil {
		return models.PredictionRequest{}, apperrors.NewInternalError(err)
	}
	result, err := v.Validate(doc)
	if err != nil {
		return models.PredictionRequest{}, apperrors.NewInternalError(err)
	}
	if err := result.Err(); err != nil {
		return models.PredictionRequest{}, err
	}

	req := models.PredictionRequest{
		OutletIdentifier: doc[models.ColOutletIdentifier].(string),
		ItemType:         models.ItemType(doc[models.ColItemType].(string)),
		ItemFatContent:   models.FatContent(doc[models.ColItemFatContent].(string)),
		ItemVisibility:   toFloat(doc[models.ColItemVisibility]),
		ItemMRP:          toFloat(doc[models.ColItemMRP]),
	}
	if id, ok := doc[models.ColItemIdentifier].(string); ok {
		req.ItemIdentifier = id
	}
	return req, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}
