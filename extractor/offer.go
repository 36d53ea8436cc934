package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/parser"
)

// parseSnapshot turns one captured page into zero or more normalized price
// records. Offers without a numeric price are filtered, not errors.
func parseSnapshot(path, scrapeLink string) (string, []models.PriceRecord, error) {
	label := parser.AirportLabel(scrapeLink)

	f, err := os.Open(path)
	if err != nil {
		return label, nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return label, nil, fmt.Errorf("parse snapshot: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "unknown"
	}
	place := strings.TrimSpace(doc.Find("h2").First().Text())
	if place == "" {
		place = "unknown"
	}

	start, end, _ := parser.UnitDates(filepath.Base(path))
	days := parser.DurationDays(start, end)
	hours := parser.DurationHours(start, end)

	scrapedAt := ""
	if info, err := os.Stat(path); err == nil {
		scrapedAt = info.ModTime().Format(models.TimestampLayout)
	}

	var records []models.PriceRecord
	doc.Find("div.airport_search").Each(func(_ int, offer *goquery.Selection) {
		availability := "available"
		if offer.Find("div.not_available").Length() > 0 {
			availability = "unavailable"
		}

		priceText := offer.Find("div.kjll").First().Text()
		stripped, value, ok := parser.ExtractPrice(priceText)
		if !ok {
			return
		}

		var icons []string
		offer.Find("div.iconDiv p").Each(func(_ int, icon *goquery.Selection) {
			if bg, ok := icon.Attr("data-bg"); ok {
				icons = append(icons, bg)
			}
		})

		slug := strings.TrimSpace(offer.Find("div.logoIcon img").First().AttrOr("alt", ""))
		if slug == "" {
			slug = "unknown"
		}

		booking := scrapeLink
		offer.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if !strings.Contains(strings.ToLower(a.Text()), "jetzt buchen") {
				return true
			}
			if href, ok := a.Attr("href"); ok {
				booking = href
			}
			return false
		})

		var services []string
		offer.Find("div.air_desript li").Each(func(_ int, li *goquery.Selection) {
			services = append(services, strings.TrimSpace(li.Text()))
		})

		records = append(records, models.PriceRecord{
			Title:             title,
			Place:             place,
			ParkingFromDt:     start.Format(models.TimestampLayout),
			ParkingToDt:       end.Format(models.TimestampLayout),
			DurationDays:      days,
			DurationHours:     hours,
			Price:             stripped,
			Currency:          "EURO",
			PricePerDay:       parser.PerUnit(value, days),
			PricePerHour:      parser.PerUnit(value, hours),
			ParkingType:       parser.ParkingTags(icons),
			ParkingDetailType: parser.DetailType(offer.Text()),
			ParkingSlug:       slug,
			Address:           findAddress(offer),
			IncludedServices:  services,
			BookingLink:       booking,
			ScrapeLink:        scrapeLink,
			ScrapedAt:         scrapedAt,
			Availability:      availability,
		})
	})

	return label, records, nil
}

// findAddress locates the "Adresse" label inside an offer and reads the text
// of the element right after it.
func findAddress(offer *goquery.Selection) string {
	address := "unknown"
	offer.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		if !strings.Contains(strings.ToLower(s.Text()), "adresse") {
			return true
		}
		next := strings.TrimSpace(s.Next().Text())
		if next == "" {
			return true
		}
		address = next
		return false
	})
	return address
}
