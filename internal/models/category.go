package models

import "strings"

// Asset categories. Closed set; anything unrecognized is a Stock.
const (
	CategoryStock     = "Stock"
	CategoryBond      = "Bond"
	CategoryCommodity = "Commodity"
	CategoryCash      = "Cash"
)

var bondKeywords = []string{
	"채권", "국고채", "단기채", "중기채", "회사채", "전단채", "국채", "미국채",
	"BOND", "TREASURY", "TIPS", "TLT", "IEF", "SHY", "BND", "AGG", "JNK", "HYG",
}

var commodityKeywords = []string{
	"골드", "금선물", "은선물", "구리", "원유", "콩", "옥수수", "농산물",
	"GOLD", "SILVER", "OIL", "COMMODITY", "GLD", "IAU", "SLV", "DBC", "PDBC", "USO",
}

var cashKeywords = []string{"달러선물", "USDOLLAR", "SHV", "BIL"}

// InferCategory guesses an asset's category from keywords in its name.
// Bond keywords take priority over Commodity, and Commodity over Cash, so a
// name matching several sets resolves to the first one.
func InferCategory(name, code string) string {
	upper := strings.ToUpper(name)

	for _, k := range bondKeywords {
		if strings.Contains(upper, k) {
			return CategoryBond
		}
	}
	for _, k := range commodityKeywords {
		if strings.Contains(upper, k) {
			return CategoryCommodity
		}
	}
	for _, k := range cashKeywords {
		if strings.Contains(upper, k) {
			return CategoryCash
		}
	}
	return CategoryStock
}
