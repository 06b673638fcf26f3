package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/formpilot/pkg/inspect"
)

// Transform converts a raw field value into the value written to the target.
type Transform func(string) string

var (
	datePattern      = regexp.MustCompile(`(\d+)\s+([\p{L}]+)\.?\s+(\d{4})`)
	dashSeparator    = regexp.MustCompile(`\s*[-–]\s*`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	femaleMarkers    = []string{"vrouw", "woman", "female"}
	maleMarkers      = []string{"man", "male"}
	monthsByPrefix   = map[string]string{}
	monthsByFullName = map[string]string{}
)

func init() {
	full := [][]string{
		{"januari", "january"},
		{"februari", "february"},
		{"maart", "march"},
		{"april"},
		{"mei", "may"},
		{"juni", "june"},
		{"juli", "july"},
		{"augustus", "august"},
		{"september"},
		{"oktober", "october"},
		{"november"},
		{"december"},
	}
	for i, names := range full {
		num := fmt.Sprintf("%02d", i+1)
		for _, name := range names {
			monthsByFullName[name] = num
			monthsByPrefix[name[:3]] = num
		}
	}
	// Dutch abbreviations that are not a prefix of the full name
	monthsByPrefix["mrt"] = "03"
}

// Date rewrites "D month YYYY" into "DD-MM-YYYY". Month names may be Dutch or
// English, full or abbreviated. An unknown month is kept as written, and text
// that does not look like a date is returned unchanged.
func Date(raw string) string {
	m := datePattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	day := m[1]
	if len(day) == 1 {
		day = "0" + day
	}
	return day + "-" + month(m[2]) + "-" + m[3]
}

func month(name string) string {
	key := inspect.Fold(name)
	if num, ok := monthsByFullName[key]; ok {
		return num
	}
	if num, ok := monthsByPrefix[key]; ok {
		return num
	}
	return name
}

// NameOrder lowercases the value, drops dash separators and joins multiple
// words with an underscore, matching the option values of the name-usage select.
func NameOrder(raw string) string {
	v := strings.TrimSpace(strings.ToLower(raw))
	v = strings.TrimSpace(dashSeparator.ReplaceAllString(v, " "))
	if strings.Contains(v, " ") {
		v = whitespaceRun.ReplaceAllString(v, "_")
	}
	return v
}

// Gender reduces free text to M or V. Female markers are tested first so that
// "vrouw" and "woman" are not read as containing "man".
func Gender(raw string) string {
	v := inspect.Fold(strings.TrimSpace(raw))
	if v == "m" {
		return "M"
	}
	for _, marker := range femaleMarkers {
		if strings.Contains(v, marker) {
			return "V"
		}
	}
	for _, marker := range maleMarkers {
		if strings.Contains(v, marker) {
			return "M"
		}
	}
	return "V"
}

// IDTypes maps identity document names to the host's document codes.
var IDTypes = map[string]string{
	"paspoort":         "P",
	"passport":         "P",
	"rijbewijs":        "R",
	"driving licence":  "R",
	"driver's license": "R",
	"identiteitskaart": "I",
	"identity card":    "I",
	"id card":          "I",
}

// IDType maps a document name to its code, keeping unknown names as written.
func IDType(raw string) string {
	if code, ok := IDTypes[inspect.Fold(strings.TrimSpace(raw))]; ok {
		return code
	}
	return raw
}

// Initials removes the dots between initials.
func Initials(raw string) string {
	return strings.ReplaceAll(raw, ".", "")
}
