package trainingload

import (
	"sort"
	"time"
)

// EWMA time constants: chronic load responds over ~42 days, acute over ~7.
const (
	ctlAlpha = 1.0 / 42.0
	atlAlpha = 1.0 / 7.0
)

// Entry is one day's training stress, append-only history.
type Entry struct {
	Date time.Time `json:"date"`
	TSS  float64   `json:"tss"`
}

// Load is the fitness/fatigue/form triple derived from TSS history.
type Load struct {
	CTL float64 `json:"ctl"`
	ATL float64 `json:"atl"`
	TSB float64 `json:"tsb"`
}

// Compute folds the EWMA recurrence over history in date order, starting from
// zero load. Days without an entry contribute zero TSS, so gaps decay the
// averages like rest days do.
func Compute(history []Entry) Load {
	if len(history) == 0 {
		return Load{}
	}

	sorted := make([]Entry, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var ctl, atl float64
	prev := day(sorted[0].Date)
	for i, e := range sorted {
		d := day(e.Date)
		if i > 0 {
			// decay through the empty days between entries
			for gap := prev.AddDate(0, 0, 1); gap.Before(d); gap = gap.AddDate(0, 0, 1) {
				ctl = ctl * (1 - ctlAlpha)
				atl = atl * (1 - atlAlpha)
			}
		}
		ctl = e.TSS*ctlAlpha + ctl*(1-ctlAlpha)
		atl = e.TSS*atlAlpha + atl*(1-atlAlpha)
		prev = d
	}

	return Load{CTL: ctl, ATL: atl, TSB: ctl - atl}
}

// Project folds a hypothetical constant daily TSS forward from the current CTL.
func Project(ctl, dailyTSS float64, days int) float64 {
	for i := 0; i < days; i++ {
		ctl = dailyTSS*ctlAlpha + ctl*(1-ctlAlpha)
	}
	return ctl
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
