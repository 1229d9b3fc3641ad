// Package export writes registration summaries to a Google Sheet, one tab per variant.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// Header is the first row of every tab
var Header = []interface{}{
	"id", "created_at", "name", "email", "phone", "year", "register_number",
	"college_name", "department", "section", "selected_events",
	"payment_screenshot_url", "payment_verified", "entry_confirmed",
}

// Sheets exports to a single spreadsheet
type Sheets struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// NewSheets builds a client from a service-account credentials file
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID string) (*Sheets, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	return NewSheetsWithOptions(ctx, spreadsheetID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
}

// NewSheetsWithOptions builds a client with explicit client options
func NewSheetsWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Sheets{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// Export replaces the contents of the outer, inter and department tabs
func (s *Sheets) Export(ctx context.Context, rows map[models.Variant][]models.RegistrationSummary) error {
	if err := s.ensureTabs(ctx); err != nil {
		return err
	}

	for _, v := range models.Variants {
		tab := string(v)
		if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, tab+"!A:Z", &sheetsv4.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to clear %s: %w", tab, err)
		}

		vr := &sheetsv4.ValueRange{Values: Rows(rows[v])}
		if _, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, tab+"!A1", vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do(); err != nil {
			return fmt.Errorf("failed to write %s: %w", tab, err)
		}
		slog.Debug("sheet tab written", "tab", tab, "rows", len(rows[v]))
	}
	return nil
}

// ensureTabs adds any missing variant tab
func (s *Sheets) ensureTabs(ctx context.Context) error {
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var reqs []*sheetsv4.Request
	for _, v := range models.Variants {
		if !existing[string(v)] {
			reqs = append(reqs, &sheetsv4.Request{
				AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: string(v)}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}

	_, err = s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add tabs: %w", err)
	}
	return nil
}

// Rows renders summaries as sheet rows, header first
func Rows(summaries []models.RegistrationSummary) [][]interface{} {
	out := make([][]interface{}, 0, len(summaries)+1)
	out = append(out, Header)
	for _, r := range summaries {
		out = append(out, []interface{}{
			r.ID,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			r.Name,
			r.Email,
			r.Phone,
			r.Year,
			r.RegisterNumber,
			r.CollegeName,
			r.Department,
			r.Section,
			strings.Join(r.SelectedEvents, ", "),
			r.PaymentScreenshotURL,
			r.PaymentVerified,
			r.EntryConfirmed,
		})
	}
	return out
}
