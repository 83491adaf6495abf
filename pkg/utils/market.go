// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"intraday-trader/internal/models"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// MarketStatusAt returns the market status for the given instant.
func MarketStatusAt(t time.Time) models.MarketStatus {
	now := t.In(IndiaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()

	// Pre-open: 9:00 - 9:15
	if timeMinutes >= 540 && timeMinutes < 555 {
		return models.MarketPreOpen
	}

	// Market open: 9:15 - 15:30
	if timeMinutes >= 555 && timeMinutes < 930 {
		// Square-off window: 15:00 onwards
		if timeMinutes >= 900 {
			return models.MarketSquareOffWindow
		}
		return models.MarketOpen
	}

	return models.MarketClosed
}

// GetMarketStatus returns the current market status.
func GetMarketStatus() models.MarketStatus {
	return MarketStatusAt(time.Now())
}

// IsMarketOpen returns true if the market is currently open.
func IsMarketOpen() bool {
	status := GetMarketStatus()
	return status == models.MarketOpen || status == models.MarketSquareOffWindow
}

// SessionDate returns the trading-day key (YYYY-MM-DD in IST) for t.
func SessionDate(t time.Time) string {
	return t.In(IndiaLocation).Format("2006-01-02")
}

// SquareOffCutoff resolves an "HH:MM" cutoff string against the trading day
// that contains t. An unparseable cutoff falls back to 15:20 IST.
func SquareOffCutoff(cutoff string, t time.Time) time.Time {
	hour, minute := 15, 20
	parts := strings.SplitN(cutoff, ":", 2)
	if len(parts) == 2 {
		if h, err := strconv.Atoi(parts[0]); err == nil {
			if m, err := strconv.Atoi(parts[1]); err == nil {
				hour, minute = h, m
			}
		}
	}
	day := t.In(IndiaLocation)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, IndiaLocation)
}

// GetMarketClose returns today's market close time (15:30 IST).
func GetMarketClose() time.Time {
	now := time.Now().In(IndiaLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 15, 30, 0, 0, IndiaLocation)
}

// FormatIndianCurrency formats a number with the rupee sign and Indian
// digit grouping (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "₹" + formatIndianNumber(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber groups an integer string per the Indian numbering
// system: last three digits, then groups of two.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a fractional value as a signed percentage.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value*100)
}
