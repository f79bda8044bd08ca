package fbr

import "strings"

const hsDecimals = 4

// NormalizeHSCode makes sure an HS code carries a four digit decimal suffix:
// "8471" -> "8471.0000", "8471.5" -> "8471.5000". Codes with four or more
// decimals are returned unchanged.
func NormalizeHSCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	dot := strings.LastIndex(code, ".")
	if dot < 0 {
		return code + "." + strings.Repeat("0", hsDecimals)
	}
	if frac := len(code) - dot - 1; frac < hsDecimals {
		return code + strings.Repeat("0", hsDecimals-frac)
	}
	return code
}
