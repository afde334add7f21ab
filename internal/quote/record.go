package quote

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/solar-quotes/constants"
)

// FieldRecord maps reply labels to their trimmed values. Keys are whatever
// labels the reply contained; only constants.FieldOrder labels are meaningful
// to the sink.
type FieldRecord map[string]string

// DisplayRecord is a FieldRecord with the customer contact fields removed.
type DisplayRecord map[string]string

// Get returns the value for label, or "" when absent.
func (r FieldRecord) Get(label string) string {
	return r[label]
}

// Display projects r onto the labels safe to show.
func (r FieldRecord) Display() DisplayRecord {
	out := make(DisplayRecord, len(r))
	for k, v := range r {
		if constants.IsPrivate(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Row returns the values in canonical column order, "" for missing labels.
func (r FieldRecord) Row() []string {
	order := constants.FieldOrder()
	row := make([]string, len(order))
	for i, label := range order {
		row[i] = r[label]
	}
	return row
}

// Keys returns known labels in canonical order followed by any extra labels sorted.
func (d DisplayRecord) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, label := range constants.FieldOrder() {
		if _, ok := d[label]; ok {
			keys = append(keys, label)
		}
	}
	var extra []string
	for k := range d {
		if !constants.IsKnownField(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// FormatRecord renders d as "Label: value" lines, the raw view shown per quote.
func FormatRecord(d DisplayRecord) string {
	keys := d.Keys()
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, d[k]))
	}
	return strings.Join(lines, "\n")
}
