// Package recorder archives registrations outside the bot: a Google Sheet
// for the organisers and an optional Postgres table.
package recorder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/m3rciful/clubbot/club/moderation"
)

// TimestampLayout is the sortable timestamp written to the first column.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the first row of the registrations sheet.
var Header = []any{"timestamp", "event", "name", "phone", "level", "note"}

// SheetsConfig locates the registrations sheet.
type SheetsConfig struct {
	CredentialsJSON string `yaml:"credentials_json" envconfig:"GSPREAD_CREDS_JSON"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// Enabled reports whether the sheet recorder can be built.
func (c SheetsConfig) Enabled() bool {
	return strings.TrimSpace(c.CredentialsJSON) != "" && strings.TrimSpace(c.SpreadsheetID) != ""
}

// NewSheetsService builds a Sheets API client from service account JSON.
// Extra options are appended, which tests use to point at a fake server.
func NewSheetsService(ctx context.Context, credentialsJSON string, opts ...option.ClientOption) (*sheets.Service, error) {
	base := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsJSON != "" {
		base = append(base, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	svc, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return svc, nil
}

// SheetRecorder appends one row per submission. The tab and its header
// row are created on first use.
type SheetRecorder struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string

	mu    sync.Mutex
	ready bool
}

var _ moderation.Recorder = (*SheetRecorder)(nil)

// NewSheetRecorder writes to sheetName inside spreadsheetID.
func NewSheetRecorder(svc *sheets.Service, spreadsheetID, sheetName string) *SheetRecorder {
	return &SheetRecorder{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// RecordSubmission appends the submission as a row.
func (r *SheetRecorder) RecordSubmission(ctx context.Context, s moderation.Submission) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]any{Row(s)}}
	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, r.a1("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append row: %w", err)
	}
	return nil
}

// RecordDecision is a no-op: the sheet lists submissions only.
func (r *SheetRecorder) RecordDecision(context.Context, moderation.Verdict) error {
	return nil
}

// Row renders a submission in Header order.
func Row(s moderation.Submission) []any {
	return []any{
		s.SubmittedAt.Format(TimestampLayout),
		s.Event.Title,
		s.Name,
		s.Phone,
		s.Level,
		s.Note,
	}
}

func (r *SheetRecorder) ensure(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if err := r.ensureSheet(ctx); err != nil {
		return err
	}
	if err := r.ensureHeader(ctx); err != nil {
		return err
	}
	r.ready = true
	return nil
}

func (r *SheetRecorder) ensureSheet(ctx context.Context) error {
	ss, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == r.sheetName {
			return nil
		}
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: r.sheetName}},
	}}}
	if _, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: add sheet %q: %w", r.sheetName, err)
	}
	return nil
}

func (r *SheetRecorder) ensureHeader(ctx context.Context) error {
	rng := r.a1("A1:F1")
	got, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: read header: %w", err)
	}
	if len(got.Values) > 0 && len(got.Values[0]) > 0 {
		return nil
	}
	vr := &sheets.ValueRange{Values: [][]any{Header}}
	if _, err := r.svc.Spreadsheets.Values.Update(r.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: write header: %w", err)
	}
	return nil
}

func (r *SheetRecorder) a1(cells string) string {
	return "'" + strings.ReplaceAll(r.sheetName, "'", "''") + "'!" + cells
}
