// Package seed embeds the timetable sheets loaded by `schedulectl seed`.
// Sheets are imported in file-name order, so the numeric prefixes fix the
// order stops appear in listings.
package seed

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.yaml
var FS embed.FS

// Files returns the embedded sheet names in import order.
func Files() ([]string, error) {
	names, err := fs.Glob(FS, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
