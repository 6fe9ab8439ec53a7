package resolver

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	stringSeparator   = "\n\n"
	minReadableLength = 10
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\r\x{00a0}]+`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

// extractJSONText picks the readable text out of a JSON content response: a
// bare string payload, then the content, text and data fields, then every
// non-empty string leaf in document order.
func extractJSONText(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return "", errors.New("invalid JSON")
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		for _, key := range []string{"content", "text"} {
			if v, ok := nonEmptyString(obj[key]); ok {
				return v, nil
			}
		}
		if raw, ok := obj["data"]; ok && !isNull(raw) {
			if v, ok := nonEmptyString(raw); ok {
				return v, nil
			}
			if !isString(raw) {
				return string(bytes.TrimSpace(raw)), nil
			}
		}
	}

	leaves, err := collectStrings(trimmed)
	if err != nil {
		return "", err
	}
	return strings.Join(leaves, stringSeparator), nil
}

// collectStrings walks a JSON value depth-first and returns every string value
// whose trimmed form is non-empty, in the order they appear. Object keys are skipped.
func collectStrings(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out []string
	if err := walkValue(dec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkValue(dec *json.Decoder, out *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			*out = append(*out, v)
		}
	case json.Delim:
		switch v {
		case '{':
			for dec.More() {
				// key
				if _, err := dec.Token(); err != nil {
					return err
				}
				if err := walkValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
		case '[':
			for dec.More() {
				if err := walkValue(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
		}
	}
	return nil
}

func nonEmptyString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isString(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '"'
}

// extractHTMLText returns the visible body text of an HTML document with
// script and style removed and whitespace normalised.
func extractHTMLText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	collectText(root, &sb)
	return normalizeWhitespace(sb.String()), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func normalizeWhitespace(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
