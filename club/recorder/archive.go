package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/clubbot/club/moderation"
)

// Submission statuses stored in the archive.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// submissionRow mirrors the submissions table.
type submissionRow struct {
	ID          string     `db:"id"`
	UserID      int64      `db:"user_id"`
	ChatID      int64      `db:"chat_id"`
	EventID     string     `db:"event_id"`
	EventTitle  string     `db:"event_title"`
	Name        string     `db:"name"`
	Phone       string     `db:"phone"`
	Level       string     `db:"level"`
	Note        string     `db:"note"`
	Status      string     `db:"status"`
	SubmittedAt time.Time  `db:"submitted_at"`
	DecidedBy   *string    `db:"decided_by"`
	DecidedAt   *time.Time `db:"decided_at"`
}

func newSubmissionRow(s moderation.Submission) submissionRow {
	return submissionRow{
		ID:          s.ID.String(),
		UserID:      s.UserID,
		ChatID:      s.ChatID,
		EventID:     s.Event.ID,
		EventTitle:  s.Event.Title,
		Name:        s.Name,
		Phone:       s.Phone,
		Level:       s.Level,
		Note:        s.Note,
		Status:      StatusPending,
		SubmittedAt: s.SubmittedAt.UTC(),
	}
}

const insertSubmission = `
INSERT INTO submissions (id, user_id, chat_id, event_id, event_title, name, phone, level, note, status, submitted_at)
VALUES (:id, :user_id, :chat_id, :event_id, :event_title, :name, :phone, :level, :note, :status, :submitted_at)`

// The decision applies to the newest pending submission of the user for
// the event, since the payload carries no submission id.
const decideSubmission = `
UPDATE submissions SET status = $1, decided_by = $2, decided_at = $3
WHERE id = (
	SELECT id FROM submissions
	WHERE user_id = $4 AND event_id = $5 AND status = 'pending'
	ORDER BY submitted_at DESC
	LIMIT 1
)`

// Archive stores submissions and their verdicts in Postgres.
type Archive struct {
	db *sqlx.DB
}

var _ moderation.Recorder = (*Archive)(nil)

// NewArchive wraps an open database.
func NewArchive(db *sqlx.DB) *Archive {
	return &Archive{db: db}
}

// RecordSubmission inserts the submission as pending.
func (a *Archive) RecordSubmission(ctx context.Context, s moderation.Submission) error {
	if _, err := a.db.NamedExecContext(ctx, insertSubmission, newSubmissionRow(s)); err != nil {
		return fmt.Errorf("archive: insert submission: %w", err)
	}
	return nil
}

// RecordDecision marks the latest pending submission as decided. A verdict
// with no pending submission is not an error; the button may be stale.
func (a *Archive) RecordDecision(ctx context.Context, v moderation.Verdict) error {
	_, err := a.db.ExecContext(ctx, decideSubmission,
		statusFor(v.Action), v.Moderator, v.DecidedAt.UTC(), v.UserID, v.EventID)
	if err != nil {
		return fmt.Errorf("archive: record decision: %w", err)
	}
	return nil
}

func statusFor(a moderation.Action) string {
	if a == moderation.Approve {
		return StatusApproved
	}
	return StatusRejected
}
