package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Shape is the top-level JSON structure a prompt asks for.
type Shape int

const (
	ShapeObject Shape = iota
	ShapeList
)

func (s Shape) String() string {
	if s == ShapeList {
		return "list"
	}
	return "object"
}

const responseSnippetLen = 200

// StripCodeFence removes a leading ```json or ``` fence and a trailing ``` fence.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ParseJSON strips any code fence and decodes the remaining text. A decode
// failure is an invalid_response error carrying the start of the text.
func ParseJSON(text string) (any, error) {
	body := StripCodeFence(text)

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, &Error{
			Kind: KindInvalidResponse,
			Err:  fmt.Errorf("%w: failed to parse JSON response: %v. Response: %s", ErrInvalidResponse, err, snippet(body, responseSnippetLen)),
		}
	}
	return v, nil
}

// Validate checks that v has the expected shape and that every object
// (the value itself, or each list item) carries all required keys.
func Validate(v any, shape Shape, required []string) error {
	switch shape {
	case ShapeList:
		items, ok := v.([]any)
		if !ok {
			return invalid("AI response must be a list of optimization suggestions")
		}
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return invalid("AI response list items must be objects")
			}
			if key, ok := missingKey(obj, required); ok {
				return invalid("missing required key in suggestion: " + key)
			}
		}
	default:
		obj, ok := v.(map[string]any)
		if !ok {
			return invalid("AI response must be a JSON object")
		}
		if key, ok := missingKey(obj, required); ok {
			return invalid("missing required key in AI response: " + key)
		}
	}
	return nil
}

func missingKey(obj map[string]any, required []string) (string, bool) {
	for _, k := range required {
		if _, ok := obj[k]; !ok {
			return k, true
		}
	}
	return "", false
}

func invalid(msg string) error {
	return &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("%w: %s", ErrInvalidResponse, msg)}
}

// snippet returns at most n characters of s without splitting UTF-8 runes.
func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
