package mailbox

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// extractPlainBody pulls the readable text out of a raw RFC 822 message.
// Plain-text parts are preferred; HTML-only messages are stripped down to
// text. Extraction never fails: anything unparseable comes back as-is so the
// classifier still has something to work with.
func extractPlainBody(raw []byte) string {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return strings.TrimSpace(string(raw))
	}

	body, err := extractBody(msg)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(body)
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		body, err := io.ReadAll(msg.Body)
		return string(body), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, err := io.ReadAll(msg.Body)
		return string(body), err
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	text, err := decodePart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(mediaType, "text/html") {
		return stripHTML(text), nil
	}
	return text, nil
}

// extractMultipartBody walks the MIME parts, preferring text/plain over
// text/html and recursing into nested multiparts.
func extractMultipartBody(body io.Reader, boundary string) (string, error) {
	mr := multipart.NewReader(body, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		mediaType, params, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(mediaType, "text/plain"):
			if content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding")); err == nil {
				textParts = append(textParts, content)
			}
		case strings.HasPrefix(mediaType, "text/html"):
			if content, err := decodePart(part, part.Header.Get("Content-Transfer-Encoding")); err == nil {
				htmlParts = append(htmlParts, content)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested, err := extractMultipartBody(part, params["boundary"]); err == nil {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n\n"), nil
	}
	if len(htmlParts) > 0 {
		return stripHTML(strings.Join(htmlParts, "\n\n")), nil
	}
	return "", nil
}

// decodePart reads one MIME part, undoing its transfer encoding
func decodePart(body io.Reader, transferEncoding string) (string, error) {
	reader := body
	switch strings.ToLower(transferEncoding) {
	case "quoted-printable":
		reader = quotedprintable.NewReader(body)
	case "base64":
		reader = base64.NewDecoder(base64.StdEncoding, body)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// stripHTML reduces an HTML body to readable text
func stripHTML(html string) string {
	html = dropTagWithContent(html, "script")
	html = dropTagWithContent(html, "style")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"<br>", "\n",
		"<br/>", "\n",
		"<br />", "\n",
		"</p>", "\n\n",
		"</div>", "\n",
	)
	html = replacer.Replace(html)

	var result strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	text := strings.TrimSpace(result.String())
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

// dropTagWithContent removes a tag and everything inside it
func dropTagWithContent(html, tag string) string {
	lower := strings.ToLower(html)
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		start := strings.Index(lower, openTag)
		if start == -1 {
			return html
		}
		end := strings.Index(lower[start:], closeTag)
		if end == -1 {
			return html[:start]
		}
		end += start + len(closeTag)
		html = html[:start] + html[end:]
		lower = lower[:start] + lower[end:]
	}
}
