package gmail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailcal/internal/model"
)

// ErrNoMessages is returned when the query matched nothing. Callers render it
// as a user-facing "no emails found" rather than a failure.
var ErrNoMessages = errors.New("no emails found")

// FetchEmails retrieves up to max messages matching the Gmail search query and
// returns subject/body pairs in list order. The body is the decoded text/plain
// part, falling back to stripped text/html when no plain part exists.
func FetchEmails(ctx context.Context, svc *gmailv1.Service, query string, max int64) ([]model.RawEmail, error) {
	user := "me"
	list, err := svc.Users.Messages.List(user).
		Q(query).
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(list.Messages) == 0 {
		return nil, ErrNoMessages
	}

	emails := make([]model.RawEmail, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := svc.Users.Messages.Get(user, m.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", m.Id, err)
		}
		emails = append(emails, model.RawEmail{
			ID:      msg.Id,
			Subject: headerValue(msg.Payload, "Subject"),
			Body:    messageBody(msg.Payload),
		})
	}
	return emails, nil
}

func headerValue(payload *gmailv1.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
