package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/LordErl/itsells-core/internal/apperr"
)

// New returns a configured validator with the struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(createBatchStructValidation, CreateBatchRequest{})
	return v
}

// createBatchStructValidation rejects lots that expire before they were made.
func createBatchStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateBatchRequest)
	if !req.ManufacturingDate.IsZero() && !req.ExpirationDate.After(req.ManufacturingDate) {
		sl.ReportError(req.ExpirationDate, "expiration_date", "ExpirationDate", "after_manufacturing", "")
	}
}

// Decode binds the JSON body into out and runs validation. Failures come back
// as validation errors for the handler to map to 400.
func Decode(r *http.Request, out any, v *validatorv10.Validate) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request body")
	}
	if err := v.Struct(out); err != nil {
		return apperr.Validation("validation failed: %s", summarize(err))
	}
	return nil
}

func summarize(err error) string {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.StructNamespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
