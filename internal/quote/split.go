package quote

import "strings"

// AnalysisMarker separates the field lines from the analysis prose.
const AnalysisMarker = "\n\nAnalysis:"

// Split parses a formatted model reply into the full record, its display
// projection and the analysis text. It never fails: a missing marker yields an
// empty analysis and lines without a colon are skipped. Keys are whatever label
// precedes the first colon, except that a blank label (": orphan") is dropped,
// so no record ever holds an empty key.
func Split(report string) (FieldRecord, DisplayRecord, string) {
	data, analysis, _ := strings.Cut(report, AnalysisMarker)

	fields := make(FieldRecord)
	for _, line := range strings.Split(data, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		// last duplicate wins
		fields[key] = strings.TrimSpace(value)
	}
	return fields, fields.Display(), strings.TrimSpace(analysis)
}
