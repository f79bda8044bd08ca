package taxengine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewItemID returns an identifier of the form item_<unix millis>_<9 random chars>
// for line items created before the order is saved.
func NewItemID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("item_%d_%s", now.UnixMilli(), random[:9])
}
