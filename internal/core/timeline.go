package core

import (
	"sort"
	"time"
)

// Labeler produces the human-readable headings of a grouped timeline.
// Grouping and ordering never depend on it; it only renders text, so a
// fixed fake can stand in during tests.
type Labeler interface {
	// TodayLabel is the heading of the today bucket (long weekday name).
	TodayLabel(t time.Time) string
	// DayLabel is the heading of a past-day bucket
	// (short weekday, long month, day of month).
	DayLabel(t time.Time) string
	// MonthLabel is the heading of a month bucket (long month, year).
	MonthLabel(t time.Time) string
}

// GroupOptions controls clock and label rendering for GroupTimeline.
// The zero value uses the wall clock and English labels.
type GroupOptions struct {
	// Now anchors the today/past boundary. Zero means time.Now().
	Now time.Time
	// Labeler renders headings. Nil means LabelerFor("").
	Labeler Labeler
	// Locale selects the default labeler's language when Labeler is nil.
	Locale string
}

// englishLabeler renders headings with the standard time package. Month
// and weekday names come out in English for every locale; callers that
// need translated headings inject their own Labeler.
type englishLabeler struct{}

func (englishLabeler) TodayLabel(t time.Time) string { return upper(t.Format("Monday")) }
func (englishLabeler) DayLabel(t time.Time) string   { return upper(t.Format("Mon January 2")) }
func (englishLabeler) MonthLabel(t time.Time) string { return t.Format("January 2006") }

// LabelerFor returns the default labeler for a locale. The standard
// library carries no translated month or weekday names, so every locale
// currently maps to the English labeler; the indirection keeps the
// grouping algorithm independent of how headings are rendered.
func LabelerFor(locale string) Labeler {
	_ = locale
	return englishLabeler{}
}

func upper(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

type dayBucket struct {
	key    int // year*10000 + month*100 + day
	latest time.Time
	items  []TimelineItem
}

type monthBucket struct {
	key    int // year*100 + month
	latest time.Time
	label  string
	days   map[int]*dayBucket
	order  []int // day keys in first-seen order
}

// GroupTimeline buckets a flat list of timeline items into a today
// section plus month sections, each month split into days, most recent
// first at every level.
//
// Items dated at or after midnight of the current day (including items
// dated in the future) land in the today bucket. Past items are grouped
// by calendar month and, within a month, by calendar day. Each month
// carries the net total of its items; when a month mixes more than one
// distinct currency the total degrades to zero with no currency rather
// than summing across currencies.
//
// The function is pure: it allocates a fresh result on every call, never
// mutates its input slice, and ties between equal timestamps keep their
// input order.
func GroupTimeline(items []TimelineItem, opts GroupOptions) GroupedTimeline {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	labeler := opts.Labeler
	if labeler == nil {
		labeler = LabelerFor(opts.Locale)
	}

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var todayItems, past []TimelineItem
	for _, item := range items {
		if !item.Date.Before(startOfToday) {
			todayItems = append(todayItems, item)
		} else {
			past = append(past, item)
		}
	}

	var today *TimelineDay
	if len(todayItems) > 0 {
		sortItemsDesc(todayItems)
		today = &TimelineDay{
			Label: labeler.TodayLabel(now),
			Items: todayItems,
		}
	}

	byMonth := make(map[int]*monthBucket)
	var monthOrder []int
	for _, item := range past {
		mk := item.Date.Year()*100 + int(item.Date.Month())
		month, ok := byMonth[mk]
		if !ok {
			month = &monthBucket{
				key:   mk,
				label: labeler.MonthLabel(item.Date),
				days:  make(map[int]*dayBucket),
			}
			byMonth[mk] = month
			monthOrder = append(monthOrder, mk)
		}
		if item.Date.After(month.latest) {
			month.latest = item.Date
		}

		dk := mk*100 + item.Date.Day()
		day, ok := month.days[dk]
		if !ok {
			day = &dayBucket{key: dk}
			month.days[dk] = day
			month.order = append(month.order, dk)
		}
		if item.Date.After(day.latest) {
			day.latest = item.Date
		}
		day.items = append(day.items, item)
	}

	sort.SliceStable(monthOrder, func(i, j int) bool {
		return byMonth[monthOrder[i]].latest.After(byMonth[monthOrder[j]].latest)
	})

	months := make([]TimelineMonth, 0, len(monthOrder))
	for _, mk := range monthOrder {
		month := byMonth[mk]

		sort.SliceStable(month.order, func(i, j int) bool {
			return month.days[month.order[i]].latest.After(month.days[month.order[j]].latest)
		})

		days := make([]TimelineDay, 0, len(month.order))
		for _, dk := range month.order {
			day := month.days[dk]
			sortItemsDesc(day.items)
			days = append(days, TimelineDay{
				Label: labeler.DayLabel(day.items[0].Date),
				Items: day.items,
			})
		}

		months = append(months, TimelineMonth{
			Label: month.label,
			Total: monthTotal(days),
			Days:  days,
		})
	}

	return GroupedTimeline{Today: today, Months: months}
}

func sortItemsDesc(items []TimelineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}

// monthTotal sums the signed values of every item in the month. The
// currency is kept only when every item agrees on it; a mixed month
// reports a zero total with no currency instead of a cross-currency sum.
func monthTotal(days []TimelineDay) TimelineAmount {
	var sum float64
	var currency string
	first := true
	for _, day := range days {
		for _, item := range day.Items {
			sum += item.Amount.Value
			if first {
				currency = item.Amount.Currency
				first = false
			} else if item.Amount.Currency != currency {
				return TimelineAmount{}
			}
		}
	}
	return TimelineAmount{Value: sum, Currency: currency}
}
