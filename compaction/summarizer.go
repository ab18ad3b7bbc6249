package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/compactpg/types"
)

// Summarizer generates conversation summaries using Claude's streaming
// API. Its Summarize method satisfies SummarizeFunc.
type Summarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewSummarizer creates a Summarizer for the given client and model
// configuration.
func NewSummarizer(client *anthropic.Client, model string, maxTokens int) *Summarizer {
	if model == "" {
		model = DefaultSummarizerModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultSummarizerMaxTokens
	}
	return &Summarizer{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Summarize produces one synthetic response message compressing the given
// messages.
func (s *Summarizer) Summarize(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessagesToCompact
	}

	userPrompt := BuildSummarizationUserPrompt(FormatMessagesAsText(messages))

	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: SummarizationSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}
	if summary.Len() == 0 {
		return nil, fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	msg := types.NewResponse(summary.String())
	msg.IsSummary = true
	return msg, nil
}

// FormatMessagesAsText renders messages as readable text for the
// summarization prompt. Tool returns are abbreviated; thinking content is
// kept because it carries useful context.
func FormatMessagesAsText(messages []*types.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := formatMessageContent(msg)
		if content == "" {
			continue
		}
		b.WriteString(roleLabel(msg.Role))
		b.WriteString(":\n")
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func roleLabel(role types.Role) string {
	if role == types.RoleResponse {
		return "Assistant"
	}
	return "User"
}

func formatMessageContent(msg *types.Message) string {
	var parts []string
	if msg.Instructions != "" {
		parts = append(parts, "[Instructions: "+msg.Instructions+"]")
	}
	for _, p := range msg.Parts {
		switch p.Type {
		case types.PartTypeText:
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		case types.PartTypeThinking:
			if p.Text != "" {
				parts = append(parts, "[Thinking: "+p.Text+"]")
			}
		case types.PartTypeToolCall:
			parts = append(parts, fmt.Sprintf("[Tool: %s, Input: %s]", p.ToolName, stringifyArgs(p.ToolArgs)))
		case types.PartTypeToolReturn:
			result := p.ToolContent
			if len(result) > 500 {
				result = result[:497] + "..."
			}
			parts = append(parts, fmt.Sprintf("[Tool Result for %s: %s]", p.ToolCallID, result))
		default:
			parts = append(parts, StringifyPart(p))
		}
	}
	return strings.Join(parts, "\n")
}
