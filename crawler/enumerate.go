package crawler

import (
	"time"

	"github.com/aluiziolira/go-crawl-parking/models"
)

// DateRanges enumerates every parking window to crawl for one target: start
// dates 1..fromDays days out, each crossed with stay lengths 1..durations
// days. The output is a pure function of the reference date and the two
// constants, so every run within the same calendar day sees the same units.
func DateRanges(today time.Time, fromDays, durations int) []models.DateRange {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	ranges := make([]models.DateRange, 0, fromDays*durations)
	for n := 1; n <= fromDays; n++ {
		from := day.AddDate(0, 0, n)
		for d := 1; d <= durations; d++ {
			ranges = append(ranges, models.DateRange{From: from, To: from.AddDate(0, 0, d)})
		}
	}
	return ranges
}
