package recorder

import (
	"context"
	"errors"

	"github.com/m3rciful/clubbot/club/moderation"
)

// Multi fans out to several recorders; every recorder is called even when
// an earlier one fails.
type Multi []moderation.Recorder

var _ moderation.Recorder = Multi(nil)

func (m Multi) RecordSubmission(ctx context.Context, s moderation.Submission) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordSubmission(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RecordDecision(ctx context.Context, v moderation.Verdict) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordDecision(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
