package prices

import (
	"fmt"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
)

// DateRange is an inclusive span of calendar days
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the range
func (r DateRange) Days() int {
	return utils.DaysBetween(r.Start, r.End) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", utils.FormatDate(r.Start), utils.FormatDate(r.End))
}

// missingRanges computes what must be fetched to cover [start, end] given
// the current coverage. Only the edges outside [first, last] are reported;
// holes between first and last are trusted to be filled. An edge range always
// reaches the coverage boundary, so a request lying entirely outside coverage
// also fills the days between it and the cached data.
func missingRanges(cov *domain.SymbolCoverage, start, end time.Time) []DateRange {
	start, end = utils.Day(start), utils.Day(end)
	if end.Before(start) {
		return nil
	}

	if cov == nil || cov.RecordCount == 0 {
		return []DateRange{{Start: start, End: end}}
	}

	if cov.Contains(start) && cov.Contains(end) {
		return nil
	}

	var ranges []DateRange
	if start.Before(cov.FirstDate) {
		ranges = append(ranges, DateRange{Start: start, End: utils.AddDays(cov.FirstDate, -1)})
	}
	if end.After(cov.LastDate) {
		ranges = append(ranges, DateRange{Start: utils.AddDays(cov.LastDate, 1), End: end})
	}
	return ranges
}

// splitWindows walks r forward in windows of batchDays days each.
// The next window starts the day after the previous one ends.
func splitWindows(r DateRange, batchDays int) []DateRange {
	if batchDays < 1 {
		batchDays = 1
	}
	if r.End.Before(r.Start) {
		return nil
	}

	var windows []DateRange
	for current := r.Start; !current.After(r.End); {
		windowEnd := utils.AddDays(current, batchDays-1)
		if windowEnd.After(r.End) {
			windowEnd = r.End
		}
		windows = append(windows, DateRange{Start: current, End: windowEnd})
		current = utils.AddDays(windowEnd, 1)
	}
	return windows
}
