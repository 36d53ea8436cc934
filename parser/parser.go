// Package parser holds the pure normalization rules applied to captured offers.
package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-crawl-parking/models"
)

var (
	priceTokenRe = regexp.MustCompile(`[-+]?\d[\d,\.]*`)
	unitDatesRe  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})→(\d{4}-\d{2}-\d{2})`)
	airportRe    = regexp.MustCompile(`parken-flughafen-([a-z\-]+)_`)
)

// Fixed clock times applied to every parking window. The site quotes prices
// for a 07:00 drop-off and a 21:00 pick-up regardless of the calendar dates.
const (
	StartHour = 7
	EndHour   = 21
)

// ExtractPrice pulls the first numeric token out of raw offer text and strips
// both thousands and decimal separators by literal removal. The stripped string
// is what downstream systems store; the float feeds the derived metrics.
// ok is false when the text carries no numeric token, which filters the offer.
func ExtractPrice(text string) (stripped string, value float64, ok bool) {
	token := priceTokenRe.FindString(text)
	if token == "" {
		return "", 0, false
	}
	stripped = strings.NewReplacer(".", "", ",", "").Replace(token)
	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return "", 0, false
	}
	return stripped, value, true
}

// UnitDates recovers the parking window from a snapshot filename and applies
// the fixed clock times.
func UnitDates(filename string) (start, end time.Time, ok bool) {
	m := unitDatesRe.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}
	startDay, err := time.Parse(models.RawDateLayout, m[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endDay, err := time.Parse(models.RawDateLayout, m[2])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = startDay.Add(StartHour * time.Hour)
	end = endDay.Add(EndHour * time.Hour)
	return start, end, true
}

// DurationDays returns the whole number of days between start and end.
func DurationDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(end.Sub(start).Seconds()) / 86400
}

// DurationHours returns elapsed whole hours between start and end. This is
// total elapsed seconds divided by 3600, NOT days*24: the 07:00/21:00 clock
// offsets make the two disagree, and downstream per-hour prices depend on the
// elapsed-seconds form.
func DurationHours(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(end.Sub(start).Seconds()) / 3600
}

// PerUnit divides a price by a duration denominator, rounded to two decimals.
// Exact half cents round to even, keeping parity with the historical dataset.
// A zero denominator yields zero rather than dividing.
func PerUnit(price float64, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return math.RoundToEven(price/float64(denom)*100) / 100
}

// ParkingTags classifies an offer's service category from its icon background
// names. Shuttle and valet are independent tags; an offer carrying neither is
// tagged "unknown", never the empty string.
func ParkingTags(iconBackgrounds []string) string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if _, ok := seen[tag]; !ok {
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	for _, bg := range iconBackgrounds {
		bg = strings.ToLower(bg)
		if strings.Contains(bg, "shuttle") {
			add("shuttle")
		}
		if strings.Contains(bg, "valet") {
			add("valet")
		}
	}
	if len(tags) == 0 {
		return "unknown"
	}
	return strings.Join(tags, " | ")
}

// DetailType decides covered vs open parking from the offer's full text. The
// site describes covered lots with either German variant.
func DetailType(offerText string) string {
	lower := strings.ToLower(offerText)
	if strings.Contains(lower, "überdacht") || strings.Contains(lower, "gedeckt") {
		return "covered"
	}
	return "open"
}

var labelFixups = strings.NewReplacer(
	"Am Main", "am Main",
	"Koeln", "Köln",
	"Muenchen", "München",
)

// AirportSlug reads the airport code out of a snapshot filename. Files whose
// names carry no airport segment resolve to "unknown".
func AirportSlug(filename string) string {
	m := airportRe.FindStringSubmatch(filename)
	if m == nil {
		return "unknown"
	}
	return m[1]
}

// AirportLabel derives the human-readable airport label from a target link.
func AirportLabel(link string) string {
	slug := link
	if idx := strings.LastIndex(slug, "/"); idx >= 0 {
		slug = slug[idx+1:]
	}
	slug = strings.TrimPrefix(slug, "parken-flughafen-")
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return labelFixups.Replace(strings.Join(words, " "))
}
