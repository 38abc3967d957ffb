package domain

// RainyStreak counts consecutive significant-rain days ending at the most
// recent day with any data. totals must be ordered most-recent-first with
// one entry per distinct calendar day, exactly as the store's daily grouping
// produces; the lookback window is whatever slice the caller fetched, which
// caps the streak.
//
// The walk anchors on the newest day and expects day anchor-i at index i.
// A day that lands before its expected slot means a whole day with no data
// was skipped, which ends the streak, as does a day below the significance
// threshold. A day after its expected slot would mean a duplicate or
// out-of-order aggregate; the grouped query cannot produce one, but such a
// row is skipped rather than trusted.
func RainyStreak(totals []DailyRainfall, minSignificant float64) int {
	if len(totals) == 0 {
		return 0
	}

	anchor := totals[0].Date
	streak := 0
	for i, day := range totals {
		expected := anchor.AddDate(0, 0, -i)
		switch {
		case day.Date.After(expected):
			continue
		case day.Date.Before(expected):
			return streak
		case day.Total < minSignificant:
			return streak
		default:
			streak++
		}
	}
	return streak
}
