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

	"retireplan/internal/core"
	applog "retireplan/internal/log"
	"retireplan/internal/seed"
	ports "retireplan/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
	planSheet     string
}

var (
	_ ports.SummaryExporter = (*Client)(nil)
	_ ports.PlanReader      = (*Client)(nil)
)

type Config struct {
	SpreadsheetID string
	SummarySheet  string
	PlanSheet     string
	// Service account credentials, inline or as a file path. Inline wins.
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	summary := strings.TrimSpace(cfg.SummarySheet)
	if summary == "" {
		summary = "Summary"
	}
	plan := strings.TrimSpace(cfg.PlanSheet)
	if plan == "" {
		plan = "Plan"
	}

	credentialsJSON, err := loadCredentials(cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		applog.FieldComponent, applog.ComponentSheets,
		"spreadsheet_id", spreadsheetID,
		"summary_sheet", summary,
		"plan_sheet", plan)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  summary,
		planSheet:     plan,
	}, nil
}

// loadCredentials falls back to GOOGLE_APPLICATION_CREDENTIALS when neither
// value is set.
func loadCredentials(inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportSummaries clears the summary sheet and writes the header plus one
// row per year.
func (c *Client) ExportSummaries(ctx context.Context, summary []core.YearSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := sheetRange(c.summarySheet, "A:Z")
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := summaryValues(summary)
	rng := sheetRange(c.summarySheet, "A1")
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported summary to Google Sheets",
		applog.FieldComponent, applog.ComponentSheets,
		"sheet", c.summarySheet,
		"years", len(summary))
	return nil
}

// ReadPlanEntries reads the plan sheet in the seed table layout.
func (c *Client) ReadPlanEntries(ctx context.Context) (seed.Result, error) {
	if c.svc == nil {
		return seed.Result{}, errors.New("sheets service not initialized")
	}
	rng := sheetRange(c.planSheet, "A:H")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return seed.Result{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return seed.ParseRows(cellRows(resp.Values)), nil
}
