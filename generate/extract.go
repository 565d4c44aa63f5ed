package generate

import (
	"encoding/json"
	"strings"

	zcodex "github.com/Paranoid-AF/zcodex"
)

// ResultKind tells which response shape produced a Result.
type ResultKind int

const (
	// ChoiceList is an OpenAI-style {"choices":[...]} body.
	ChoiceList ResultKind = iota + 1
	// DirectContent is a llama.cpp-style {"content":"..."} body.
	DirectContent
)

func (k ResultKind) String() string {
	switch k {
	case ChoiceList:
		return "choices"
	case DirectContent:
		return "content"
	}
	return "unknown"
}

// Result is the generated text together with the shape it came from.
type Result struct {
	Kind ResultKind
	Text string
}

type completionResponse struct {
	Choices *[]completionChoice `json:"choices"`
	Content *string             `json:"content"`
	Error   *apiError           `json:"error,omitempty"`
}

type completionChoice struct {
	Text    *string      `json:"text"`
	Message *chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Extract picks the generated text out of a response body. A choices key wins
// over a content key; a body with neither is a shape mismatch.
func Extract(body []byte) (Result, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, zcodex.Errorf(zcodex.KindResponseShapeMismatch, err,
			"failed to parse response (body: %s)", truncate(string(body), errorBodyMax))
	}

	switch {
	case resp.Choices != nil:
		choices := *resp.Choices
		if len(choices) == 0 {
			return Result{}, zcodex.Errorf(zcodex.KindResponseShapeMismatch, nil, "no choices in response")
		}
		c := choices[0]
		if c.Text != nil {
			return Result{Kind: ChoiceList, Text: *c.Text}, nil
		}
		if c.Message != nil {
			return Result{Kind: ChoiceList, Text: c.Message.Content}, nil
		}
		return Result{}, zcodex.Errorf(zcodex.KindResponseShapeMismatch, nil, "choice has neither text nor message")
	case resp.Content != nil:
		return Result{Kind: DirectContent, Text: *resp.Content}, nil
	case resp.Error != nil:
		return Result{}, zcodex.Errorf(zcodex.KindTransportFailure, nil, "API error: %s", resp.Error.Message)
	}
	return Result{}, zcodex.Errorf(zcodex.KindResponseShapeMismatch, nil,
		"response has neither choices nor content (body: %s)", truncate(string(body), errorBodyMax))
}

// Clean strips what the model echoed back. The profile's preamble trim runs
// first, then the prompt is removed once if it is a literal prefix. Only
// profiles with TrimBarePrefix fall back to the prompt without the shebang.
func Clean(r Result, s Split, p Profile) string {
	text := r.Text
	if p.PreambleTrim > 0 {
		text = dropChars(text, p.PreambleTrim)
	}
	prompts := []string{s.Prefix()}
	if p.TrimBarePrefix {
		prompts = append(prompts, s.Before)
	}
	return TrimEcho(text, prompts...)
}

// TrimEcho removes the first of prompts that text starts with.
func TrimEcho(text string, prompts ...string) string {
	for _, p := range prompts {
		if p != "" && strings.HasPrefix(text, p) {
			return text[len(p):]
		}
	}
	return text
}

// dropChars removes the first n characters of s.
func dropChars(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[pos:]
		}
		i++
	}
	return ""
}
