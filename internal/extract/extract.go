package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mailcal/internal/model"
)

// Completer is the text-in/text-out extraction collaborator (an LLM).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Skip records why one email produced no candidate. Emails whose extraction
// reports has_event=false are dropped without a Skip entry.
type Skip struct {
	Subject string
	Reason  string
}

// Adapter turns raw emails into candidate event records via the extractor.
type Adapter struct {
	llm          Completer
	maxBodyChars int
	now          func() time.Time
}

func NewAdapter(llm Completer, maxBodyChars int) *Adapter {
	if maxBodyChars <= 0 {
		maxBodyChars = 4000
	}
	return &Adapter{llm: llm, maxBodyChars: maxBodyChars, now: time.Now}
}

// Extract runs one extraction request per email, in order. A failed call or an
// unparseable response skips that email and continues the batch; candidates
// are returned unvalidated with provenance attached.
func (a *Adapter) Extract(ctx context.Context, emails []model.RawEmail) ([]model.CandidateRecord, []Skip) {
	var candidates []model.CandidateRecord
	var skips []Skip
	for _, email := range emails {
		resp, err := a.llm.Complete(ctx, a.buildPrompt(email))
		if err != nil {
			skips = append(skips, Skip{Subject: email.Subject, Reason: fmt.Sprintf("extractor call: %v", err)})
			continue
		}
		rec, err := parseCandidate(resp)
		if err != nil {
			skips = append(skips, Skip{Subject: email.Subject, Reason: fmt.Sprintf("parse response: %v", err)})
			continue
		}
		if !rec.HasEvent {
			continue
		}
		rec.SourceSubject = email.Subject
		candidates = append(candidates, rec)
	}
	return candidates, skips
}

func (a *Adapter) buildPrompt(email model.RawEmail) string {
	body := email.Body
	if len(body) > a.maxBodyChars {
		body = body[:a.maxBodyChars]
	}
	return fmt.Sprintf(`You are an assistant that extracts calendar event details from emails.
Today's date is %s.

Return ONLY a JSON object with exactly these keys:
- title: short event summary (string)
- description: notes or context (string)
- start_date: event date as "YYYY-MM-DD" (string)
- start_time: start time as "HH:MM" in 24h format, or "" if not mentioned
- end_date: end date as "YYYY-MM-DD", or "" if same as start_date
- end_time: end time as "HH:MM", or "" if not mentioned
- location: physical or virtual location, or "" if not mentioned
- all_day: true if the event has no specific time of day (boolean)
- has_event: true only if the email describes a concrete, dated event (boolean)

If no concrete, dated event is present, return {"has_event": false}.

Email subject: %s
Email body:
%s`, a.now().Format("2006-01-02"), email.Subject, body)
}

// parseCandidate recovers the JSON object from the model's response text,
// tolerating markdown code fences and surrounding prose.
func parseCandidate(resp string) (model.CandidateRecord, error) {
	var rec model.CandidateRecord
	raw := strings.TrimSpace(resp)
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return rec, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rec); err != nil {
		return rec, err
	}
	return rec, nil
}
