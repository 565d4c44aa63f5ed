// Package generate runs the completion pipeline: split the buffer at the
// cursor, build the variant's payload, post it, and clean the reply.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	zcodex "github.com/Paranoid-AF/zcodex"
	defaults "github.com/Paranoid-AF/zcodex/default"
	"github.com/Paranoid-AF/zcodex/redact"
)

// Engine turns a command-line buffer and cursor into a completion.
type Engine struct {
	settings  *zcodex.Settings
	profile   Profile
	generator *Generator
	persona   string
}

// NewEngine creates an engine for the given settings.
func NewEngine(settings *zcodex.Settings, opts ...GeneratorOption) (*Engine, error) {
	profiles, err := LoadProfiles()
	if err != nil {
		return nil, err
	}
	profile, ok := profiles[settings.Variant]
	if !ok {
		return nil, fmt.Errorf("no profile for variant %q", settings.Variant)
	}

	persona := loadCustomPersona()
	if persona == "" {
		persona = strings.TrimSpace(defaults.DefaultPersona)
	}

	return &Engine{
		settings:  settings,
		profile:   profile,
		generator: NewGenerator(settings.APIURL, settings.APIKey, settings.OrganizationID, opts...),
		persona:   persona,
	}, nil
}

// loadCustomPersona loads a custom persona.
// Returns empty string if no custom persona exists.
func loadCustomPersona() string {
	path := zcodex.PersonaPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	slog.Debug("loaded custom persona", "path", path)
	return strings.TrimSpace(string(data))
}

// Complete runs the pipeline once and returns the text to print.
func (e *Engine) Complete(ctx context.Context, buffer string, cursor int) (string, error) {
	split, err := SplitBuffer(buffer, cursor)
	if err != nil {
		return "", err
	}

	if e.settings.RedactSecrets {
		split.Before, split.After = redact.Buffer(split.Before, split.After)
	}

	grammar := e.settings.Grammar
	if grammar != "" && !e.settings.Variant.Local() {
		slog.Warn("grammar is only sent to local servers, ignoring", "variant", e.settings.Variant)
		grammar = ""
	}

	req, err := BuildRequest(e.profile, split, BuildOptions{
		Model:   e.settings.Model,
		Persona: e.persona,
		Grammar: grammar,
	})
	if err != nil {
		return "", err
	}

	body, err := e.generator.Post(ctx, req)
	if err != nil {
		slog.Debug("generation error", "error", err)
		return "", err
	}

	result, err := Extract(body)
	if err != nil {
		return "", err
	}

	out := Clean(result, split, e.profile)
	slog.Debug("completion", "shape", result.Kind, "raw", result.Text, "cleaned", out)
	return out, nil
}
