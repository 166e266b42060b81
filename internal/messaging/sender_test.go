package messaging

import (
	"context"
	"testing"
)

func TestCanonicalizePhone(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{"already canonical", "15551234567", "15551234567", false},
		{"e164 format", "+15551234567", "15551234567", false},
		{"formatted number", "(555) 123-4567", "5551234567", false},
		{"spaces and dashes", "1 555 123 4567", "15551234567", false},
		{"empty", "", "", true},
		{"no digits", "not-a-number", "", true},
		{"too short", "12345", "", true},
		{"minimum length", "123456", "123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalizePhone(tt.recipient)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CanonicalizePhone(%q) error = %v, wantErr %v", tt.recipient, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CanonicalizePhone(%q) = %q, want %q", tt.recipient, got, tt.want)
			}
		})
	}
}

func TestLogSenderValidatesRecipient(t *testing.T) {
	s := NewLogSender()

	if err := s.SendReminder(context.Background(), "+1 555 123 4567", "time to reflect"); err != nil {
		t.Errorf("SendReminder with valid number: %v", err)
	}
	if err := s.SendReminder(context.Background(), "bogus", "time to reflect"); err == nil {
		t.Error("SendReminder with invalid number should fail")
	}
}

func TestNewTwilioSenderRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewTwilioSender(); err == nil {
		t.Fatal("expected error without credentials")
	}

	if _, err := NewTwilioSender(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
	); err == nil {
		t.Fatal("expected error without from number")
	}

	s, err := NewTwilioSender(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
		WithFromNumber("+15550000000"),
	)
	if err != nil {
		t.Fatalf("NewTwilioSender: %v", err)
	}
	if s.from != "+15550000000" {
		t.Errorf("from = %q", s.from)
	}
}
