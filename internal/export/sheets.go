// Package export ships monthly spending reports to a Google Sheet. The
// worker appends one row per (year, month) bucket of the current
// snapshot so the spreadsheet accumulates a history over time.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"capify/internal/core"
)

type Reporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewReporter builds a Reporter against the given spreadsheet using
// service account credentials from the environment.
func NewReporter(ctx context.Context, spreadsheetID, sheetName string) (*Reporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Monthly"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Reporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendMonthlyReport appends the snapshot's monthly buckets plus a
// summary row. A nil snapshot is a no-op; there is nothing to report.
func (r *Reporter) AppendMonthlyReport(ctx context.Context, snap *core.Snapshot) error {
	if snap == nil {
		slog.InfoContext(ctx, "No data to export, skipping report")
		return nil
	}

	exportedAt := time.Now().Format("2006-01-02 15:04")
	values := make([][]any, 0, len(snap.Monthly)+1)
	for _, m := range snap.Monthly {
		values = append(values, []any{
			exportedAt,
			fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			m.Amount.Float(),
		})
	}
	values = append(values, []any{
		exportedAt,
		"total",
		snap.Summary.Total.Float(),
	})

	vr := &gsheet.ValueRange{Values: values}
	rng := fmt.Sprintf("%s!A:C", r.sheetName)
	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append report rows: %w", err)
	}

	slog.InfoContext(ctx, "Appended monthly report",
		"rows", len(values),
		"spreadsheet_id", r.spreadsheetID,
		"sheet", r.sheetName)
	return nil
}
