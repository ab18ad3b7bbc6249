// Package report renders compaction summaries and results for inspection
// UIs. Summaries are markdown produced by a model, so the rendered HTML is
// sanitized before use.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/types"
)

// compactionDurationUnit is the rounding applied to durations in digests.
const compactionDurationUnit = time.Millisecond

// Renderer converts summary markdown into sanitized HTML.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRenderer creates a renderer with a UGC sanitization policy.
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// RenderMarkdown converts markdown to sanitized HTML.
func (r *Renderer) RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// RenderSummary renders the text content of a summary message as
// sanitized HTML. Non-summary messages render the same way; the caller
// decides what to show.
func (r *Renderer) RenderSummary(msg *types.Message) (template.HTML, error) {
	if msg == nil {
		return "", nil
	}
	var b strings.Builder
	for _, p := range msg.Parts {
		if p.Type == types.PartTypeText {
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
	}
	return r.RenderMarkdown(b.String())
}

// FormatResult renders a one-paragraph markdown digest of a compaction
// result.
func FormatResult(result *compaction.Result) string {
	if result == nil {
		return "No compaction was needed."
	}
	reduction := float64(0)
	if result.OriginalTokens > 0 {
		reduction = float64(result.OriginalTokens-result.CompactedTokens) / float64(result.OriginalTokens) * 100
	}
	return fmt.Sprintf(
		"**Compaction** via `%s`: %d → %d tokens (%.1f%% reduction), %d messages removed in %s.",
		result.Strategy,
		result.OriginalTokens,
		result.CompactedTokens,
		reduction,
		result.MessagesRemoved,
		result.Duration.Round(compactionDurationUnit),
	)
}
