package domain

import (
	"errors"
	"fmt"
)

// Level is a flood alert severity. Levels are ordered: a higher value always
// means a more severe situation.
type Level int

const (
	LevelNone Level = iota
	LevelAdvisory
	LevelWatch
	LevelWarning
)

// String returns the short keyword for the level.
func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARNING"
	case LevelWatch:
		return "WATCH"
	case LevelAdvisory:
		return "ADVISORY"
	default:
		return "NONE"
	}
}

// Label returns the full human-readable alert line recorded on observations
// and sent to the operator. The level number and ordering are contractual;
// the wording is presentation.
func (l Level) Label() string {
	switch l {
	case LevelWarning:
		return "Level 3 - WARNING: Severe risk of flooding - Immediate action required."
	case LevelWatch:
		return "Level 2 - WATCH: Moderate to high flood risk - Prepare for action."
	case LevelAdvisory:
		return "Level 1 - ADVISORY: Possible localized flooding - Stay vigilant."
	default:
		return "Level 0 - No flood risk"
	}
}

// Thresholds holds the rainfall limits (mm) and streak lengths (days) that
// drive classification. Values are fixed at startup and never mutated.
//
// The defaults are calibrated for Gaborone's drainage characteristics.
type Thresholds struct {
	HourlyAdvisory float64
	HourlyWatch    float64
	HourlyWarning  float64

	DailyAdvisory float64
	DailyWatch    float64
	DailyWarning  float64

	StreakAdvisory int
	StreakWatch    int
	StreakWarning  int

	// MinSignificantDaily is the daily total at or above which a day counts
	// toward the rainy streak.
	MinSignificantDaily float64
}

// DefaultThresholds returns the operational Gaborone calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HourlyAdvisory: 3,
		HourlyWatch:    8,
		HourlyWarning:  15,

		DailyAdvisory: 15,
		DailyWatch:    20,
		DailyWarning:  40,

		StreakAdvisory: 1,
		StreakWatch:    2,
		StreakWarning:  4,

		MinSignificantDaily: 10,
	}
}

// Validate rejects threshold sets that would break the classifier's
// monotonicity, i.e. any trigger for a lower level sitting at or above the
// trigger for a higher one.
func (t Thresholds) Validate() error {
	if t.HourlyAdvisory <= 0 || t.DailyAdvisory <= 0 || t.MinSignificantDaily <= 0 {
		return errors.New("thresholds must be positive")
	}
	if !(t.HourlyAdvisory < t.HourlyWatch && t.HourlyWatch < t.HourlyWarning) {
		return fmt.Errorf("hourly thresholds not strictly increasing: %g, %g, %g",
			t.HourlyAdvisory, t.HourlyWatch, t.HourlyWarning)
	}
	if !(t.DailyAdvisory < t.DailyWatch && t.DailyWatch < t.DailyWarning) {
		return fmt.Errorf("daily thresholds not strictly increasing: %g, %g, %g",
			t.DailyAdvisory, t.DailyWatch, t.DailyWarning)
	}
	if !(t.StreakAdvisory < t.StreakWatch && t.StreakWatch < t.StreakWarning) {
		return fmt.Errorf("streak thresholds not strictly increasing: %d, %d, %d",
			t.StreakAdvisory, t.StreakWatch, t.StreakWarning)
	}
	if t.StreakAdvisory < 1 {
		return errors.New("streak advisory threshold must be at least 1")
	}
	return nil
}

// Classify maps one observation's last-hour rainfall, the trailing 24h
// accumulation, and the current rainy streak to a flood alert level. The
// cascade is evaluated most severe first; any single trigger is sufficient.
// The function is total and deterministic: every input combination yields
// exactly one of the four levels.
func (t Thresholds) Classify(hourlyMM, dailyMM float64, streak int) Level {
	switch {
	case hourlyMM >= t.HourlyWarning || dailyMM >= t.DailyWarning || streak >= t.StreakWarning:
		return LevelWarning
	case hourlyMM >= t.HourlyWatch || dailyMM >= t.DailyWatch || streak >= t.StreakWatch:
		return LevelWatch
	case hourlyMM >= t.HourlyAdvisory || dailyMM >= t.DailyAdvisory || streak >= t.StreakAdvisory:
		return LevelAdvisory
	default:
		return LevelNone
	}
}
