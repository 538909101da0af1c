package gmail

import (
	"encoding/base64"
	"testing"

	gmailv1 "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestMessageBody_PrefersPlainText(t *testing.T) {
	payload := &gmailv1.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailv1.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmailv1.MessagePartBody{Data: b64("<p>meeting at <b>10am</b></p>")},
			},
			{
				MimeType: "text/plain",
				Body:     &gmailv1.MessagePartBody{Data: b64("meeting at 10am")},
			},
		},
	}
	if got := messageBody(payload); got != "meeting at 10am" {
		t.Errorf("messageBody = %q, want plain part", got)
	}
}

func TestMessageBody_FallsBackToStrippedHTML(t *testing.T) {
	payload := &gmailv1.MessagePart{
		MimeType: "text/html",
		Body:     &gmailv1.MessagePartBody{Data: b64("<div>Dinner &amp; drinks<br>Friday</div>")},
	}
	want := "Dinner & drinks\nFriday"
	if got := messageBody(payload); got != want {
		t.Errorf("messageBody = %q, want %q", got, want)
	}
}

func TestMessageBody_NestedMultipart(t *testing.T) {
	payload := &gmailv1.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailv1.MessagePart{
			{MimeType: "application/pdf", Body: &gmailv1.MessagePartBody{}},
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailv1.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmailv1.MessagePartBody{Data: b64("see attachment")},
					},
				},
			},
		},
	}
	if got := messageBody(payload); got != "see attachment" {
		t.Errorf("messageBody = %q", got)
	}
}

func TestDecodeBody_PaddedFallback(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("ok"))
	if got := decodeBody(padded); got != "ok" {
		t.Errorf("decodeBody(padded) = %q", got)
	}
	if got := decodeBody("%%%"); got != "" {
		t.Errorf("decodeBody(garbage) = %q, want empty", got)
	}
}

func TestHeaderValue_CaseInsensitive(t *testing.T) {
	payload := &gmailv1.MessagePart{
		Headers: []*gmailv1.MessagePartHeader{
			{Name: "subject", Value: "Team Sync"},
		},
	}
	if got := headerValue(payload, "Subject"); got != "Team Sync" {
		t.Errorf("headerValue = %q", got)
	}
	if got := headerValue(payload, "From"); got != "" {
		t.Errorf("missing header got %q", got)
	}
}
