package fbr

import (
	"slices"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortItems returns a copy of items ordered by serial number using numeric
// aware collation ("2" before "10"). Items without a serial go last and ties
// keep their relative order.
func SortItems(items []taxengine.LineItem) []taxengine.LineItem {
	out := slices.Clone(items)
	// Collators are not safe for concurrent use.
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)

	slices.SortStableFunc(out, func(a, b taxengine.LineItem) int {
		as, bs := strings.TrimSpace(a.SerialNumber), strings.TrimSpace(b.SerialNumber)
		switch {
		case as == "" && bs == "":
			return 0
		case as == "":
			return 1
		case bs == "":
			return -1
		}
		return c.CompareString(as, bs)
	})
	return out
}
