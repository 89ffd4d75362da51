package score

import (
	"math"
	"slices"
	"time"
)

// Cadence summarizes a package's release history.
type Cadence struct {
	MeanDays      float64 `json:"release_frequency_days"`
	PerYear       float64 `json:"releases_per_year"`
	TotalReleases int     `json:"total_releases"`
}

// ReleaseCadence derives release statistics from the registry time map.
// The "created" and "modified" keys are not versions. Unparseable
// timestamps are ignored. Fewer than two dated versions, or releases that
// all fall within one day, give a zero cadence that still reports the
// number of versions.
func ReleaseCadence(times map[string]string) Cadence {
	var dates []time.Time
	total := 0
	for version, ts := range times {
		if version == "created" || version == "modified" {
			continue
		}
		total++
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			dates = append(dates, t)
		}
	}

	c := Cadence{TotalReleases: total}
	if len(dates) < 2 {
		return c
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	days := math.Floor(dates[len(dates)-1].Sub(dates[0]).Hours() / 24)
	if days <= 0 {
		return c
	}
	mean := days / float64(len(dates)-1)
	c.MeanDays = round(mean, 1)
	c.PerYear = round(365/mean, 2)
	return c
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
