package money

// LegacyDecimals is the fixed precision every amount in the legacy schema
// was stored with, regardless of currency.
const LegacyDecimals = 2

// fraction digits per ISO 4217 code for the currencies the legacy schema
// can carry. Codes absent from the table use the common default of 2.
var currencyDecimals = map[string]int{
	"BHD": 3,
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"IQD": 3,
	"ISK": 0,
	"JOD": 3,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"PYG": 0,
	"RWF": 0,
	"TND": 3,
	"UGX": 0,
	"VND": 0,
	"VUV": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,
}

// DecimalsFor returns the number of minor-unit digits for a currency code.
func DecimalsFor(code string) int {
	if d, ok := currencyDecimals[code]; ok {
		return d
	}
	return 2
}
