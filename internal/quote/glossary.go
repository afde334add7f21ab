package quote

// GlossaryEntry is one solar term and its definition.
type GlossaryEntry struct {
	Term       string
	Definition string
}

var glossary = []GlossaryEntry{
	{Term: "Solar Panel", Definition: "A device that converts sunlight into electricity."},
	{Term: "Solar Inverter", Definition: "Converts DC electricity from solar panels into AC electricity for home use."},
	{Term: "Cost per Watt", Definition: "The total cost of the solar system divided by its power output in watts."},
	{Term: "Payback Period", Definition: "The time it takes for energy savings to equal the cost of the solar system."},
	{Term: "Annual Production", Definition: "The estimated amount of electricity your solar system will generate in a year."},
	{Term: "kWh (Kilowatt-hour)", Definition: "A unit of energy equal to 1,000 watt-hours, used to measure electricity consumption."},
	{Term: "Net Metering", Definition: "A billing system that credits solar energy system owners for electricity they add to the grid."},
	{Term: "PV (Photovoltaic)", Definition: "The conversion of light into electricity using semiconducting materials."},
	{Term: "Efficiency", Definition: "The percentage of sunlight a solar panel can convert into usable electricity."},
	{Term: "Degradation Rate", Definition: "The rate at which solar panels lose efficiency over time."},
}

// Terms returns the fixed glossary in display order. Callers get their own copy.
func Terms() []GlossaryEntry {
	out := make([]GlossaryEntry, len(glossary))
	copy(out, glossary)
	return out
}
