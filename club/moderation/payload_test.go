package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Decision{
		{Action: Approve, UserID: 12345, EventID: "m1"},
		{Action: Reject, UserID: 12345, EventID: "m1"},
		{Action: Approve, UserID: -1001234567890, EventID: "m1"},
		{Action: Reject, UserID: 7, EventID: "spring_book_club"},
		{Action: Approve, UserID: 0, EventID: "_"},
	}
	for _, d := range cases {
		p, err := Encode(d)
		require.NoError(t, err)
		got, err := Decode(p)
		require.NoError(t, err, p)
		assert.Equal(t, d, got, p)
	}
}

func TestEncodeFormat(t *testing.T) {
	p, err := Encode(Decision{Action: Approve, UserID: 12345, EventID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "approve_12345_m1", p)

	p, err = Encode(Decision{Action: Reject, UserID: 12345, EventID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "reject_12345_m1", p)
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(Decision{UserID: 1, EventID: "m1"})
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = Encode(Decision{Action: Approve, UserID: 1})
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = Encode(Decision{Action: Approve, UserID: 1, EventID: strings.Repeat("x", 60)})
	assert.ErrorIs(t, err, ErrPayloadTooLong)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, p := range []string{
		"",
		"approve",
		"approve_12345",
		"approve_abc_m1",
		"approve__m1",
		"approve_+12345_m1",
		"approve_012345_m1",
		"approve_12345_",
		"accept_12345_m1",
		"approve_99999999999999999999_m1",
	} {
		_, err := Decode(p)
		assert.ErrorIs(t, err, ErrMalformedPayload, p)
	}
}
