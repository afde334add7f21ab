package llm

import (
	"strings"

	"github.com/joseph-ayodele/solar-quotes/constants"
)

const ocrSystemPrompt = "You are an OCR engine."

const quoteSystemPrompt = "You are a solar quote comparison tool used to compare solar quotes for price per watt, " +
	"system specs and more. Present the information in a clear, readable format. " +
	"Ensure all calculations are accurate, especially the cost per watt and total system price."

// BuildPageExtractionMessages wraps one page's base64 payload in the OCR instruction.
func BuildPageExtractionMessages(encodedPage string) []Message {
	return []Message{
		{Role: RoleSystem, Content: ocrSystemPrompt},
		{Role: RoleUser, Content: "Extract the text from the following file content (base64-encoded): " + encodedPage},
	}
}

// BuildQuoteParseMessages embeds the combined document text verbatim in the field template.
func BuildQuoteParseMessages(combinedText string) []Message {
	return []Message{
		{Role: RoleSystem, Content: quoteSystemPrompt},
		{Role: RoleUser, Content: BuildQuoteUserPrompt(combinedText)},
	}
}

// BuildQuoteUserPrompt lists the fields to extract, the Cost per Watt and total price
// checks, the analysis request, and the literal reply template.
func BuildQuoteUserPrompt(combinedText string) string {
	var b strings.Builder
	b.WriteString("Extract and present the following details from the text in a clear, readable format. ")
	b.WriteString("Be concise in your analysis and make it human-readable. ")
	b.WriteString("It is absolutely essential that the numbers you pull from the PDF are accurate and that ")
	b.WriteString("the math for cost per watt and total system price is correct. ")
	b.WriteString("Double check all calculations before outputting.\n\n")

	b.WriteString("1. Extract the following information:\n")
	for _, f := range constants.FieldOrder() {
		if f == constants.CostPerWatt {
			continue
		}
		b.WriteString("- ")
		b.WriteString(f)
		switch f {
		case constants.TotalPrice:
			b.WriteString(" (in USD)")
		case constants.SystemSize:
			b.WriteString(" (in kW)")
		case constants.AnnualProduction:
			b.WriteString(" (kWh)")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n2. Calculate and verify the Cost per Watt:\n")
	b.WriteString("- Divide the Total Price by (System Size in kW * 1000)\n")
	b.WriteString("- Round the result to 2 decimal places\n")
	b.WriteString("- Double-check this calculation to ensure accuracy\n")
	b.WriteString("- Include this verified calculation in your output\n")

	b.WriteString("\n3. Verify the Total System Price:\n")
	b.WriteString("- Ensure that the Total Price matches any breakdown provided in the quote\n")
	b.WriteString("- If there's a discrepancy, note it and use the most accurate figure\n")

	b.WriteString("\n4. Provide a brief, concise analysis of the quote (3-4 sentences max), including:\n")
	b.WriteString("- How this quote compares to typical market rates\n")
	b.WriteString("- A key recommendation for the customer\n")

	b.WriteString("\nFormat your response as follows:\n")
	for _, f := range constants.FieldOrder() {
		b.WriteString(f)
		if f == constants.CostPerWatt {
			b.WriteString(": [Calculated and Verified Value]\n")
		} else {
			b.WriteString(": [Value]\n")
		}
	}
	b.WriteString("\nAnalysis: [Your brief analysis]\n\n")

	b.WriteString("Here is the text: ")
	b.WriteString(combinedText)
	return b.String()
}
