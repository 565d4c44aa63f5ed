package generate

import (
	"fmt"
	"strings"
	"text/template"
)

// Request is a ready-to-send payload and the path it is posted to.
type Request struct {
	Path string
	Body any
}

// completionRequest is the cloud /v1/completions and local /completion payload.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      any     `json:"prompt"` // string, or []string for infill
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	N           int     `json:"n"`
	Stop        string  `json:"stop"`
	Grammar     string  `json:"grammar,omitempty"`
}

type infillRequest struct {
	completionRequest
	InputPrefix string `json:"input_prefix"`
	InputSuffix string `json:"input_suffix"`
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TemplateData holds the data passed to an instruction template.
type TemplateData struct {
	Persona string
	Prompt  string
}

// BuildOptions carries the per-invocation inputs of BuildRequest.
type BuildOptions struct {
	Model   string
	Persona string
	// Grammar is only sent for local variants.
	Grammar string
}

// BuildRequest assembles the payload for profile p.
func BuildRequest(p Profile, s Split, opts BuildOptions) (*Request, error) {
	full := s.FullCommand()

	if p.Chat {
		return &Request{
			Path: p.Path,
			Body: chatCompletionsRequest{
				Model: opts.Model,
				Messages: []chatMessage{
					{Role: "system", Content: opts.Persona},
					{Role: "user", Content: full},
				},
			},
		}, nil
	}

	base := completionRequest{
		Model:       opts.Model,
		Prompt:      full,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		N:           p.N,
		Stop:        p.Stop,
		Grammar:     opts.Grammar,
	}

	if !p.Infill {
		return &Request{Path: p.Path, Body: base}, nil
	}

	wrapped, err := renderTemplate(p, TemplateData{Persona: opts.Persona, Prompt: full})
	if err != nil {
		return nil, err
	}
	base.Prompt = []string{wrapped}
	return &Request{
		Path: p.Path,
		Body: infillRequest{
			completionRequest: base,
			InputPrefix:       s.Prefix(),
			InputSuffix:       s.Suffix(),
		},
	}, nil
}

// renderTemplate renders the profile's instruction template.
func renderTemplate(p Profile, data TemplateData) (string, error) {
	t, err := template.New(p.TemplateName).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", p.TemplateName, err)
	}
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", p.TemplateName, err)
	}
	return buf.String(), nil
}
