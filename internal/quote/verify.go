package quote

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/solar-quotes/constants"
)

// CostCheckStatus is the outcome of recomputing Cost per Watt locally.
type CostCheckStatus string

const (
	CostCheckOK           CostCheckStatus = "ok"
	CostCheckMismatch     CostCheckStatus = "mismatch"
	CostCheckUnverifiable CostCheckStatus = "unverifiable"
)

// CostPerWattTolerance is the allowed absolute difference in dollars per watt.
const CostPerWattTolerance = 0.01

// CostCheck compares the reported Cost per Watt with price / watts.
type CostCheck struct {
	Status   CostCheckStatus
	Reported float64
	Computed float64
	Reason   string
}

var (
	numberRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	// amountRe allows a thousands or millions suffix: "$20k", "1.2M".
	amountRe = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(thousand|million|k|m)?\b`)
	// sizeRe captures the unit after a system size; longer spellings first.
	sizeRe = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(kilowatts?|kwp|kw|megawatts?|mwp|mw|watts?|wp|w)?\b`)
)

// CheckCostPerWatt recomputes Total Price / (System Size kW * 1000), rounded to
// two decimals, and flags replies whose Cost per Watt disagrees.
func CheckCostPerWatt(r FieldRecord) CostCheck {
	price, ok := parseAmount(r.Get(constants.TotalPrice))
	if !ok || price <= 0 {
		return CostCheck{Status: CostCheckUnverifiable, Reason: "total price missing or not numeric"}
	}
	watts, ok := parseWatts(r.Get(constants.SystemSize))
	if !ok || watts <= 0 {
		return CostCheck{Status: CostCheckUnverifiable, Reason: "system size missing or not numeric"}
	}
	computed := round2(price / watts)
	if computed <= 0 {
		return CostCheck{Status: CostCheckUnverifiable, Reason: "computed cost per watt rounds to zero; check units"}
	}

	reported, ok := parseNumber(r.Get(constants.CostPerWatt))
	if !ok {
		return CostCheck{Status: CostCheckUnverifiable, Computed: computed, Reason: "cost per watt missing or not numeric"}
	}
	if math.Abs(reported-computed) > CostPerWattTolerance+1e-9 {
		return CostCheck{
			Status:   CostCheckMismatch,
			Reported: reported,
			Computed: computed,
			Reason:   fmt.Sprintf("reported %.2f, computed %.2f", reported, computed),
		}
	}
	return CostCheck{Status: CostCheckOK, Reported: reported, Computed: computed}
}

// FormatCostPerWatt renders a value the way the reply template expects it.
func FormatCostPerWatt(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', 2, 64)
}

func parseNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseAmount reads a price, expanding k/M suffixes.
func parseAmount(s string) (float64, bool) {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k", "thousand":
		v *= 1e3
	case "m", "million":
		v *= 1e6
	}
	return v, true
}

// parseWatts reads a system size in watts. A bare number is taken as kW.
func parseWatts(s string) (float64, bool) {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch unit := strings.ToLower(m[2]); {
	case unit == "w" || unit == "wp" || strings.HasPrefix(unit, "watt"):
		return v, true
	case unit == "mw" || unit == "mwp" || strings.HasPrefix(unit, "megawatt"):
		return v * 1e6, true
	default:
		return v * 1e3, true
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
