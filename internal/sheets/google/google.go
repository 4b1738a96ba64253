package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	ports "paycal/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// reportBase is the tab name without year (e.g. "Payments"); the export year is prefixed.
	reportBase string
}

// Ensure interface conformance
var _ ports.ScheduleExporter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID writing into "<year> <reportSheet>" tabs.
// Without options, credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, reportSheet string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	reportSheet = strings.TrimSpace(reportSheet)
	if reportSheet == "" {
		reportSheet = "Payments"
	}

	if len(opts) == 0 {
		creds, err := credentialsOption(ctx)
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		opts = []goption.ClientOption{creds, goption.WithScopes(gsheet.SpreadsheetsScope)}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportBase:    reportSheet,
	}, nil
}

// credentialsOption loads Service Account credentials from the environment.
func credentialsOption(ctx context.Context) (goption.ClientOption, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return goption.WithCredentialsJSON([]byte(serviceAccountJSON)), nil
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return goption.WithCredentialsJSON(credentialsJSON), nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth appends one row per payment to the year's report tab.
func (c *Client) ExportMonth(ctx context.Context, year int, month time.Month, rows []ports.ScheduleRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if month < time.January || month > time.December {
		return "", fmt.Errorf("invalid month: %d", month)
	}
	sheetName := yearPrefixedName(c.reportBase, year)
	if len(rows) == 0 {
		return sheetName, nil
	}

	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Values())
	}

	rng := fmt.Sprintf("'%s'!A:F", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append %s: %w", rng, err)
	}

	ref := sheetName
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Schedule exported to Google Sheets",
		"year", year,
		"month", int(month),
		"rows", len(rows),
		"range", ref)
	return ref, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
