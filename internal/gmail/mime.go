package gmail

import (
	"encoding/base64"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// messageBody returns the plain-text body of a message, preferring a
// text/plain MIME part and falling back to tag-stripped text/html.
func messageBody(payload *gmailv1.MessagePart) string {
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	if html := findPart(payload, "text/html"); html != "" {
		return stripHTML(html)
	}
	return ""
}

// findPart walks the MIME part tree depth-first and returns the first decoded
// body with the wanted MIME type. For multipart containers the wanted type is
// preferred among direct children before recursing.
func findPart(part *gmailv1.MessagePart, want string) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, want) && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if strings.EqualFold(sub.MimeType, want) {
			if body := findPart(sub, want); body != "" {
				return body
			}
		}
	}
	for _, sub := range part.Parts {
		if body := findPart(sub, want); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes Gmail body data, which is unpadded base64url; padded
// base64url appears in the wild too.
func decodeBody(data string) string {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

// stripHTML removes tags and decodes common entities to produce readable text.
func stripHTML(html string) string {
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</tr>", "</li>"} {
		html = strings.ReplaceAll(html, tag, "\n")
		html = strings.ReplaceAll(html, strings.ToUpper(tag), "\n")
	}

	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(b.String())

	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
