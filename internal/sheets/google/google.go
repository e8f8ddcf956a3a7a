// Package google exports grouped timelines to a Google Sheets
// spreadsheet using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"walletline/internal/core"
	"walletline/internal/format"
	ports "walletline/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	locale        string
}

var _ ports.TimelineWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth comes from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// application default credentials, in that order.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Timeline"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		locale:        strings.TrimSpace(os.Getenv("DEFAULT_LOCALE")),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	switch {
	case serviceAccountJSON != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON([]byte(serviceAccountJSON)),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case serviceAccountFile != "":
		return gsheet.NewService(ctx,
			goption.WithCredentialsFile(serviceAccountFile),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	default:
		// Fall through to application default credentials.
		return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
	}
}

// WriteTimeline appends the grouped timeline as rows: a heading row per
// month with its net total, a heading row per day, then one row per
// item with time, title, category, account and the signed amount.
func (c *Client) WriteTimeline(ctx context.Context, walletName string, timeline core.GroupedTimeline) error {
	rows := timelineRows(walletName, timeline, c.locale)
	if len(rows) == 0 {
		slog.InfoContext(ctx, "No timeline rows to export", "wallet", walletName)
		return nil
	}

	rangeRef := fmt.Sprintf("%s!A1", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, rangeRef, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append timeline rows: %w", err)
	}

	slog.InfoContext(ctx, "Exported timeline to Google Sheets",
		"wallet", walletName,
		"rows", len(rows),
		"sheets_ref", rangeRef)
	return nil
}

func timelineRows(walletName string, timeline core.GroupedTimeline, locale string) [][]any {
	if timeline.Today == nil && len(timeline.Months) == 0 {
		return nil
	}

	var rows [][]any
	opts := format.MoneyOptions{MaxFractionDigits: 2, Locale: locale}

	appendDay := func(day core.TimelineDay) {
		rows = append(rows, []any{"", day.Label})
		for _, item := range day.Items {
			rows = append(rows, []any{
				"",
				item.Date.Format("15:04"),
				item.Title,
				item.Category.Name,
				item.Account,
				format.MoneyFloat(item.Amount.Value, opts),
				item.Amount.Currency,
			})
		}
	}

	rows = append(rows, []any{walletName})
	if timeline.Today != nil {
		rows = append(rows, []any{"TODAY"})
		appendDay(*timeline.Today)
	}
	for _, month := range timeline.Months {
		rows = append(rows, []any{
			month.Label,
			"",
			"",
			"",
			"",
			format.MoneyFloat(month.Total.Value, opts),
			month.Total.Currency,
		})
		for _, day := range month.Days {
			appendDay(day)
		}
	}
	return rows
}
