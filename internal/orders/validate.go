package orders

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// FieldError describes one invalid input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveOptions controls how the upstream handles tax submission on save.
type SaveOptions struct {
	SkipFBRSubmission      bool   `json:"skipFbrSubmission"`
	IsProductionSubmission bool   `json:"isProductionSubmission"`
	ProductionToken        string `json:"productionToken,omitempty"`
}

// ValidateForSave checks a draft before it is sent upstream. Every problem is
// reported, not only the first.
func ValidateForSave(d Draft, opts SaveOptions) error {
	var errs error
	if len(d.Items) == 0 {
		errs = multierr.Append(errs, FieldError{Field: "items", Message: "at least one item is required"})
	}
	for i, item := range d.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			errs = multierr.Append(errs, FieldError{Field: prefix + ".productId", Message: "product is required"})
		}
		if item.IsWeightBased {
			if !item.WeightQuantity.IsPositive() {
				errs = multierr.Append(errs, FieldError{Field: prefix + ".weightQuantity", Message: "weight must be greater than zero"})
			}
		} else if item.Quantity <= 0 {
			errs = multierr.Append(errs, FieldError{Field: prefix + ".quantity", Message: "quantity must be greater than zero"})
		}
	}
	if opts.IsProductionSubmission && !opts.SkipFBRSubmission && strings.TrimSpace(opts.ProductionToken) == "" {
		errs = multierr.Append(errs, FieldError{Field: "productionToken", Message: "production token is required for production submission"})
	}
	return validationError(errs)
}

func validationError(errs error) error {
	if errs == nil {
		return nil
	}
	fields := lo.FilterMap(multierr.Errors(errs), func(err error, _ int) (FieldError, bool) {
		fe, ok := err.(FieldError)
		return fe, ok
	})
	return pkgerrors.New(pkgerrors.CodeValidation, "order validation failed").
		WithDetails(map[string]any{"fields": fields})
}
