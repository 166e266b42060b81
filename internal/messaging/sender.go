// Package messaging delivers reminder messages to users.
//
// The only outbound channel is SMS via Twilio; deployments without Twilio
// credentials fall back to a log-only sender so reminder scheduling still
// works end to end.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// phoneNumberRegex matches everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Sender is the outbound message delivery abstraction.
type Sender interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a phone
	// number. Returns the canonicalized recipient and an error if validation
	// fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendReminder sends one reminder message to a recipient.
	SendReminder(ctx context.Context, to string, body string) error
}

// CanonicalizePhone strips non-digit characters and validates the result.
// Shared by every Sender implementation.
func CanonicalizePhone(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}

	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}

	if recipient != canonical {
		slog.Debug("Canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// LogSender logs reminders instead of delivering them. Used when Twilio is
// not configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizePhone(recipient)
}

func (s *LogSender) SendReminder(ctx context.Context, to string, body string) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		return err
	}
	slog.Info("LogSender.SendReminder: reminder not delivered (no SMS provider configured)", "to", canonical, "body", body)
	return nil
}
