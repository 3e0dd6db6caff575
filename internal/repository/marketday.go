package repository

import "time"

// jakarta is fixed at UTC+7; Indonesia has no daylight saving.
var jakarta = time.FixedZone("WIB", 7*60*60)

// MarketDay returns the store's calendar day (YYYY-MM-DD, Asia/Jakarta) for ts.
func MarketDay(ts time.Time) string {
	return ts.In(jakarta).Format(time.DateOnly)
}

// MarketDayNow returns the market day for the current moment.
func MarketDayNow() string {
	return MarketDay(time.Now())
}

// MarketDayStart parses a YYYY-MM-DD market day and returns its first instant.
func MarketDayStart(day string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, day, jakarta)
}
