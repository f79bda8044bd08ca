package validators

import (
	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

// LineItemEdit rejects edits that name no field, a field the resolver does not
// know, or a value the field cannot hold.
func LineItemEdit(edit taxengine.Edit) error {
	if edit.Field == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"edit.field": "is required"})
	}
	if _, err := taxengine.ParseField(string(edit.Field)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
			WithDetails(map[string]string{"edit.field": "is not a line item field"})
	}
	if reason := taxengine.RejectValue(edit.Field, edit.Value); reason != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"edit.value": reason})
	}
	return nil
}
