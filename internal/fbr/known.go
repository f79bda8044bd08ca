package fbr

import "strings"

// Provinces accepted by the tax authority for buyer and seller addresses.
var Provinces = []string{
	"Punjab",
	"Sindh",
	"Khyber Pakhtunkhwa",
	"Balochistan",
	"Islamabad Capital Territory",
	"Gilgit-Baltistan",
	"Azad Jammu and Kashmir",
}

// SaleTypes lists the sale type descriptions the digital invoicing API knows.
var SaleTypes = []string{
	"Goods at standard rate (default)",
	"Goods at Reduced Rate",
	"Goods at zero-rate",
	"Exempt goods",
	"3rd Schedule Goods",
	"Goods (FED in ST Mode)",
	"Services",
	"Services (FED in ST Mode)",
	"Processing/Conversion of Goods",
	"Electricity Supply to Retailers",
	"Telecommunication services",
	"Steel melting and re-rolling",
	"Cotton ginners",
	"Mobile Phones",
	"Petroleum Products",
	"CNG Sales",
	"Toll Manufacturing",
	"Ship breaking",
	"Non-Adjustable Supplies",
	"Other Sale",
}

// SROSchedules lists the common SRO and schedule references.
var SROSchedules = []string{
	"EIGHTH SCHEDULE Table 1",
	"EIGHTH SCHEDULE Table 2",
	"SIXTH SCHEDULE",
	"THIRD SCHEDULE",
	"FIFTH SCHEDULE",
	"NINTH SCHEDULE",
	"327(I)/2008",
	"297(I)/2023-Table-I",
	"ICTO TABLE I",
}

// IsKnownProvince reports whether province is one of Provinces. A value that
// is not known is a custom entry typed by staff.
func IsKnownProvince(province string) bool {
	return containsFold(Provinces, province)
}

// IsKnownSaleType reports whether saleType is one of SaleTypes.
func IsKnownSaleType(saleType string) bool {
	return containsFold(SaleTypes, saleType)
}

// IsKnownSROSchedule reports whether schedule is one of SROSchedules.
func IsKnownSROSchedule(schedule string) bool {
	return containsFold(SROSchedules, schedule)
}

// LineFlags are the presentation toggles an editor shows next to a line.
type LineFlags struct {
	CustomSaleType    bool `json:"customSaleType"`
	CustomSROSchedule bool `json:"customSroSchedule"`
}

// FlagsFor derives the custom-entry toggles from the stored values.
func FlagsFor(saleType, sroSchedule string) LineFlags {
	return LineFlags{
		CustomSaleType:    strings.TrimSpace(saleType) != "" && !IsKnownSaleType(saleType),
		CustomSROSchedule: strings.TrimSpace(sroSchedule) != "" && !IsKnownSROSchedule(sroSchedule),
	}
}

func containsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
