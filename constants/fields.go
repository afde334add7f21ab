package constants

// Field labels as they appear in the formatted model reply.
const (
	InstallerName          = "Installer Name"
	InstallerEmail         = "Installer Email"
	InstallerPhone         = "Installer Phone"
	TotalPrice             = "Total Price"
	SystemSize             = "System Size"
	CostPerWatt            = "Cost per Watt"
	AnnualProduction       = "Estimated Annual Production"
	PanelInformation       = "Panel Information"
	InverterModelAndOutput = "Inverter Model and Output"
	IncentivesOrRebates    = "Incentives or Rebates"
	WarrantyInformation    = "Warranty Information"
	PaybackPeriod          = "Estimated Payback Period"
	CustomerEmail          = "Customer Email"
	CustomerPhoneNumber    = "Customer Phone Number"
)

// fieldOrder is also the spreadsheet column order.
var fieldOrder = []string{
	InstallerName,
	InstallerEmail,
	InstallerPhone,
	TotalPrice,
	SystemSize,
	CostPerWatt,
	AnnualProduction,
	PanelInformation,
	InverterModelAndOutput,
	IncentivesOrRebates,
	WarrantyInformation,
	PaybackPeriod,
	CustomerEmail,
	CustomerPhoneNumber,
}

var privateFields = map[string]struct{}{
	CustomerEmail:       {},
	CustomerPhoneNumber: {},
}

// FieldOrder returns a copy of the canonical field list.
func FieldOrder() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// IsPrivate reports whether a label must be hidden from display output.
func IsPrivate(label string) bool {
	_, ok := privateFields[label]
	return ok
}

// IsKnownField reports whether label belongs to the fixed vocabulary.
func IsKnownField(label string) bool {
	for _, f := range fieldOrder {
		if f == label {
			return true
		}
	}
	return false
}
