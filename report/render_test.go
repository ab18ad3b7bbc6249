package report

import (
	"strings"
	"testing"
	"time"

	"github.com/youssefsiam38/compactpg/compaction"
	"github.com/youssefsiam38/compactpg/types"
)

func TestRenderMarkdown(t *testing.T) {
	r := NewRenderer()
	html, err := r.RenderMarkdown("# Session Intent\n\nBuild the **parser**.")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1") {
		t.Error("heading should render")
	}
	if !strings.Contains(out, "<strong>parser</strong>") {
		t.Error("emphasis should render")
	}
}

func TestRenderMarkdownSanitizesScripts(t *testing.T) {
	r := NewRenderer()
	html, err := r.RenderMarkdown("hello <script>alert('x')</script> world")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if strings.Contains(string(html), "<script") {
		t.Error("script tags must be stripped")
	}
	if !strings.Contains(string(html), "hello") {
		t.Error("surrounding text should survive sanitization")
	}
}

func TestRenderSummary(t *testing.T) {
	r := NewRenderer()

	if html, err := r.RenderSummary(nil); err != nil || html != "" {
		t.Error("nil message renders to nothing")
	}

	msg := types.NewResponse("## Decisions\n\n- chose sqlite")
	msg.IsSummary = true
	html, err := r.RenderSummary(msg)
	if err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	if !strings.Contains(string(html), "<h2") || !strings.Contains(string(html), "<li>") {
		t.Errorf("summary markdown should render, got %q", html)
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(nil); got != "No compaction was needed." {
		t.Errorf("nil result digest = %q", got)
	}

	result := &compaction.Result{
		Strategy:        compaction.StrategySummarization,
		OriginalTokens:  1000,
		CompactedTokens: 250,
		MessagesRemoved: 30,
		Duration:        1234567 * time.Nanosecond,
	}
	got := FormatResult(result)
	if !strings.Contains(got, "summarization") {
		t.Error("digest should name the strategy")
	}
	if !strings.Contains(got, "75.0% reduction") {
		t.Errorf("digest should report the reduction, got %q", got)
	}
	if !strings.Contains(got, "30 messages removed") {
		t.Errorf("digest should report removals, got %q", got)
	}
}
