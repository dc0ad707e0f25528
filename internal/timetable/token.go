// Package timetable turns hand-transcribed timetable sheets into departures.
//
// Printed timetable boards are copied into YAML sheets token by token. A
// token is either a canonical "HH:MM" time, a time followed by marker
// letters ("12:20A"), or the placeholder "-" for a blank cell.
package timetable

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tornimae/busboard/internal/domain"
)

// Placeholder marks a blank cell on a timetable board. It is never imported.
const Placeholder = "-"

// maxAnnotationLen bounds the marker letters accepted after a time.
const maxAnnotationLen = 8

// annotatedPattern splits "12:20A" into the time and its marker letters.
var annotatedPattern = regexp.MustCompile(`^(\d{2}:\d{2})([A-Za-z]{1,8})$`)

// Entry is one normalized token.
type Entry struct {
	Time       string
	Annotation string
}

// ParseToken normalizes a single raw token.
// skip is true for the placeholder; the returned Entry is then empty.
func ParseToken(raw string) (entry Entry, skip bool, err error) {
	tok := strings.TrimSpace(raw)
	if tok == Placeholder {
		return Entry{}, true, nil
	}
	if domain.ValidClock(tok) {
		return Entry{Time: tok}, false, nil
	}
	if m := annotatedPattern.FindStringSubmatch(tok); m != nil && domain.ValidClock(m[1]) {
		return Entry{Time: m[1], Annotation: m[2]}, false, nil
	}
	return Entry{}, false, fmt.Errorf("invalid departure token %q", raw)
}

// ValidAnnotation reports whether s can be stored as a departure annotation.
// The empty string is valid and means "ordinary run".
func ValidAnnotation(s string) bool {
	if len(s) > maxAnnotationLen {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
