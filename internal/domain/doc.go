// Package domain holds the flood-risk decision core: the observation model,
// the canonical timestamp encoding, the rainy-streak computation, and the
// alert classifier.
//
// # Data Source
//
// Observations come from the OpenWeatherMap current-weather endpoint for a
// single configured city. The "rain.1h" field is millimetres of rain in the
// hour preceding the observation; it is absent when there was no rain and is
// clamped to zero if the provider ever reports a negative value.
//
// # Timestamps
//
// All stored and compared timestamps use one canonical naive-UTC string
// encoding, "YYYY/MM/DD,HH:MM:SS" ([TimestampLayout]). The encoding collates
// lexicographically in chronological order, so the store can run range and
// group-by-day queries directly on the string column. Mixing zone-aware and
// naive instants is a correctness hazard; nothing outside this package
// formats or parses observation timestamps.
//
// # Accumulation windows
//
// Trailing 24h rainfall is the sum of hourly readings with timestamps
// strictly inside the 24 hours before the current reading. When the polling
// cadence is coarser than hourly this undercounts true accumulation, since
// it sums discrete rain.1h samples rather than continuous coverage. That is
// an accepted approximation: the derived figure is a lower bound, and the
// thresholds are calibrated against it.
//
// # Rainy streak
//
// A day is significant when its summed rainfall reaches
// [Thresholds.MinSignificantDaily]. The streak is the run of consecutive
// significant days ending at the most recent day with data, capped by the
// seven-day lookback the orchestrator fetches. A calendar day with no rows
// at all is a gap and ends the run. Sustained moderate rain keeps soil and
// drainage saturated, so a long streak escalates the alert level even when
// no single hour was intense. See [RainyStreak].
//
// # Classification
//
// [Thresholds.Classify] maps (hourly mm, trailing 24h mm, streak) to one of
// four ordered levels, most severe rule first, any single trigger being
// sufficient. The function is total: aggregate-query failures upstream
// degrade to zero inputs rather than propagating, so every cycle that
// fetches an observation produces a classification.
package domain
