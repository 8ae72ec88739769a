package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/moderation"
)

func submission() moderation.Submission {
	return moderation.Submission{
		ID:          uuid.MustParse("6f1c2a7e-8d0b-4c5e-9a3f-1b2c3d4e5f60"),
		UserID:      12345,
		ChatID:      12345,
		Event:       catalog.Default(),
		Name:        "Alex Doe",
		Phone:       "555-0100",
		Level:       "Intermediate (B1–B2)",
		Note:        "-",
		SubmittedAt: time.Date(2025, 10, 1, 9, 5, 7, 0, time.UTC),
	}
}

func TestRowOrder(t *testing.T) {
	assert.Equal(t, []any{
		"2025-10-01 09:05:07", "Coffee & Conversation", "Alex Doe", "555-0100", "Intermediate (B1–B2)", "-",
	}, Row(submission()))
	assert.Len(t, Header, 6)
}

// fakeSheets is a minimal Sheets API v4 server.
type fakeSheets struct {
	mu       sync.Mutex
	titles   []string
	header   [][]any
	appended [][]any
	requests []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	f.requests = append(f.requests, r.Method+" "+path)
	body, _ := io.ReadAll(r.Body)

	var payload struct {
		Values   [][]any `json:"values"`
		Requests []struct {
			AddSheet struct {
				Properties struct {
					Title string `json:"title"`
				} `json:"properties"`
			} `json:"addSheet"`
		} `json:"requests"`
	}
	_ = json.Unmarshal(body, &payload)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		for _, req := range payload.Requests {
			f.titles = append(f.titles, req.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":append"):
		f.appended = append(f.appended, payload.Values...)
		_, _ = w.Write([]byte(`{}`))
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		f.header = payload.Values
		_, _ = w.Write([]byte(`{}`))
	case strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.header})
	default:
		sheetsList := make([]map[string]any, 0, len(f.titles))
		for _, title := range f.titles {
			sheetsList = append(sheetsList, map[string]any{"properties": map[string]any{"title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheetsList})
	}
}

func newFakeRecorder(t *testing.T, fake *fakeSheets) *SheetRecorder {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := NewSheetsService(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewSheetRecorder(svc, "sheet-id", "EnglishClubRegistrations")
}

func TestSheetRecorderCreatesTabAndHeaderOnce(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}}
	r := newFakeRecorder(t, fake)

	require.NoError(t, r.RecordSubmission(context.Background(), submission()))
	require.NoError(t, r.RecordSubmission(context.Background(), submission()))

	assert.Equal(t, []string{"Sheet1", "EnglishClubRegistrations"}, fake.titles)
	require.Len(t, fake.header, 1)
	assert.Equal(t, "timestamp", fake.header[0][0])
	require.Len(t, fake.appended, 2)
	assert.Equal(t, "Alex Doe", fake.appended[0][2])

	batch := 0
	for _, req := range fake.requests {
		if strings.HasSuffix(req, ":batchUpdate") {
			batch++
		}
	}
	assert.Equal(t, 1, batch)
}

func TestSheetRecorderKeepsExistingHeader(t *testing.T) {
	fake := &fakeSheets{
		titles: []string{"EnglishClubRegistrations"},
		header: [][]any{{"when", "what"}},
	}
	r := newFakeRecorder(t, fake)

	require.NoError(t, r.RecordSubmission(context.Background(), submission()))
	assert.Equal(t, [][]any{{"when", "what"}}, fake.header)
	assert.Len(t, fake.appended, 1)
	assert.Len(t, fake.titles, 1)
}

func TestSheetRecorderReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	svc, err := NewSheetsService(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	r := NewSheetRecorder(svc, "sheet-id", "Regs")
	assert.Error(t, r.RecordSubmission(context.Background(), submission()))
}

func TestSheetsConfigEnabled(t *testing.T) {
	assert.False(t, SheetsConfig{}.Enabled())
	assert.False(t, SheetsConfig{CredentialsJSON: "{}"}.Enabled())
	assert.True(t, SheetsConfig{CredentialsJSON: "{}", SpreadsheetID: "x"}.Enabled())
}

type stubRecorder struct {
	subs, decs int
	err        error
}

func (s *stubRecorder) RecordSubmission(context.Context, moderation.Submission) error {
	s.subs++
	return s.err
}

func (s *stubRecorder) RecordDecision(context.Context, moderation.Verdict) error {
	s.decs++
	return s.err
}

func TestMultiCallsEveryRecorder(t *testing.T) {
	failing := &stubRecorder{err: errors.New("sheet quota")}
	ok := &stubRecorder{}
	m := Multi{failing, ok}

	err := m.RecordSubmission(context.Background(), submission())
	assert.ErrorContains(t, err, "sheet quota")
	assert.NoError(t, Multi{ok}.RecordDecision(context.Background(), moderation.Verdict{}))
	assert.Equal(t, 1, failing.subs)
	assert.Equal(t, 1, ok.subs)
	assert.Equal(t, 1, ok.decs)
}

func TestSubmissionRowAndStatus(t *testing.T) {
	row := newSubmissionRow(submission())
	assert.Equal(t, "6f1c2a7e-8d0b-4c5e-9a3f-1b2c3d4e5f60", row.ID)
	assert.Equal(t, StatusPending, row.Status)
	assert.Equal(t, "m1", row.EventID)
	assert.Nil(t, row.DecidedBy)
	assert.Equal(t, StatusApproved, statusFor(moderation.Approve))
	assert.Equal(t, StatusRejected, statusFor(moderation.Reject))
}
