package environment

import (
	"strings"

	"word2latex/internal/types"
)

// ParseEntry reads the compact descriptor form
//
//	[Alias!]Name[Prefix]([]|{})[Suffix]
//
// where "[]" or "{}" marks extra arguments in that bracket style, e.g.
// "Def!Definition[]" or "Sample[size=15][]{2}".
func ParseEntry(entry string) (Descriptor, error) {
	entry = strings.TrimSpace(entry)
	d := Descriptor{Priority: DefaultPriority, ArgStyle: ArgBracket}

	rest := entry
	if i := strings.Index(entry, "!"); i >= 0 {
		d.Alias, rest = entry[:i], entry[i+1:]
	}

	nameEnd := strings.IndexAny(rest, "[{")
	if nameEnd < 0 {
		nameEnd = len(rest)
	}
	d.Name = strings.TrimSpace(rest[:nameEnd])
	if d.Name == "" {
		return Descriptor{}, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"environment entry has no name", entry, nil)
	}
	rest = rest[nameEnd:]

	marker, style := -1, ArgBracket
	if i := strings.Index(rest, "[]"); i >= 0 {
		marker = i
	}
	if i := strings.Index(rest, "{}"); i >= 0 && (marker < 0 || i < marker) {
		marker, style = i, ArgBrace
	}
	if marker < 0 {
		d.Prefix = rest
		return d, nil
	}

	d.HasExtraArgs = true
	d.ArgStyle = style
	d.Prefix = rest[:marker]
	d.Suffix = rest[marker+2:]
	return d, nil
}

// ParseEntries parses a list of compact entries. Later entries get lower
// priority so the list order is the matching order.
func ParseEntries(entries []string) ([]Descriptor, error) {
	ds := make([]Descriptor, 0, len(entries))
	for i, e := range entries {
		d, err := ParseEntry(e)
		if err != nil {
			return nil, err
		}
		d.Priority = len(entries) - i
		ds = append(ds, d)
	}
	return ds, nil
}

// FormatEntry is the inverse of ParseEntry.
func FormatEntry(d Descriptor) string {
	var sb strings.Builder
	if d.Alias != "" && d.Alias != d.Name {
		sb.WriteString(d.Alias + "!")
	}
	sb.WriteString(d.Name)
	sb.WriteString(d.Prefix)
	if d.HasExtraArgs {
		open, close := d.brackets()
		sb.WriteString(open + close)
	}
	sb.WriteString(d.Suffix)
	return sb.String()
}
