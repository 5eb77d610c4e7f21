// Package script provides narration script generation from extracted content.
// It defines the Generator port and an OpenAI chat-completions implementation.
package script

import "context"

// Generator turns extracted source text into a narration script.
type Generator interface {
	Generate(ctx context.Context, content string) (string, error)
}
