package google

import (
	"testing"
	"time"

	"walletline/internal/core"
)

func TestTimelineRows(t *testing.T) {
	timeline := core.GroupedTimeline{
		Today: &core.TimelineDay{
			Label: "FRIDAY",
			Items: []core.TimelineItem{{
				ID:       "t0",
				Title:    "Coffee",
				Category: core.TimelineCategory{Name: "Food"},
				Amount:   core.TimelineAmount{Value: -3.5, Currency: "USD"},
				Date:     time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
			}},
		},
		Months: []core.TimelineMonth{{
			Label: "February 2024",
			Total: core.TimelineAmount{Value: -1250, Currency: "USD"},
			Days: []core.TimelineDay{{
				Label: "WED FEBRUARY 14",
				Items: []core.TimelineItem{{
					ID:       "t1",
					Title:    "Rent",
					Account:  "Main",
					Category: core.TimelineCategory{Name: "Housing"},
					Amount:   core.TimelineAmount{Value: -1250, Currency: "USD"},
					Date:     time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC),
				}},
			}},
		}},
	}

	rows := timelineRows("Main", timeline, "")

	// wallet + TODAY + day label + item + month + day label + item
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	if rows[0][0] != "Main" || rows[1][0] != "TODAY" {
		t.Errorf("headings = %v / %v", rows[0], rows[1])
	}
	month := rows[4]
	if month[0] != "February 2024" || month[5] != "-1,250" || month[6] != "USD" {
		t.Errorf("month row = %v", month)
	}
	item := rows[6]
	if item[1] != "08:00" || item[2] != "Rent" || item[4] != "Main" {
		t.Errorf("item row = %v", item)
	}
}

func TestTimelineRows_Empty(t *testing.T) {
	if rows := timelineRows("Main", core.GroupedTimeline{}, ""); rows != nil {
		t.Errorf("rows = %v, want nil for an empty timeline", rows)
	}
}
