package compaction

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/youssefsiam38/compactpg/types"
)

// unknownPartPlaceholder is the projection used for parts whose payload
// cannot be rendered as text.
const unknownPartPlaceholder = "<unrenderable part>"

// overheadCacheSize bounds the per-tool-schema estimate cache.
const overheadCacheSize = 256

// EstimateTokenCount returns a cheap, deterministic token estimate for
// text. The heuristic is length-based (~3 characters per token) and never
// returns less than 1, so even empty content carries a nonzero cost.
func EstimateTokenCount(text string) int {
	n := len(text) / 3
	if n < 1 {
		return 1
	}
	return n
}

// StringifyPart renders a part as text for token estimation and hashing.
// It never fails: foreign part types degrade to their raw payload or a
// fixed placeholder.
func StringifyPart(p types.Part) string {
	switch p.Type {
	case types.PartTypeText, types.PartTypeThinking:
		return p.Text
	case types.PartTypeToolCall:
		return p.ToolName + "(" + stringifyArgs(p.ToolArgs) + ")"
	case types.PartTypeToolReturn:
		return p.ToolContent
	default:
		if len(p.Raw) > 0 {
			return string(p.Raw)
		}
		if p.Text != "" {
			return p.Text
		}
		return unknownPartPlaceholder
	}
}

// stringifyArgs renders tool arguments compactly. Invalid JSON is passed
// through verbatim rather than rejected.
func stringifyArgs(args json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, args); err != nil {
		return string(args)
	}
	return buf.String()
}

// EstimateMessageTokens estimates the token cost of a whole message.
// A nil or empty message still costs at least one token.
func EstimateMessageTokens(msg *types.Message) int {
	if msg == nil {
		return 1
	}
	total := 0
	for _, p := range msg.Parts {
		total += EstimateTokenCount(StringifyPart(p))
	}
	if total < 1 {
		return 1
	}
	return total
}

// SumMessageTokens estimates the total token cost of a message sequence.
func SumMessageTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateMessageTokens(msg)
	}
	return total
}

// OverheadEstimator estimates the static context overhead reserved before
// any history fits: the system prompt plus every tool/MCP definition
// advertised to the model. Per-definition estimates are cached since tool
// schemas rarely change within a session.
type OverheadEstimator struct {
	systemPrompt string
	tools        []types.ToolDefinition
	cache        *lru.Cache[string, int]
}

// NewOverheadEstimator creates an estimator for the given system prompt and
// tool definitions.
func NewOverheadEstimator(systemPrompt string, tools []types.ToolDefinition) *OverheadEstimator {
	cache, _ := lru.New[string, int](overheadCacheSize)
	return &OverheadEstimator{
		systemPrompt: systemPrompt,
		tools:        tools,
		cache:        cache,
	}
}

// SetTools replaces the cached tool definitions.
func (e *OverheadEstimator) SetTools(tools []types.ToolDefinition) {
	e.tools = tools
}

// Estimate returns the token estimate for the static context overhead.
func (e *OverheadEstimator) Estimate() int {
	total := 0
	if e.systemPrompt != "" {
		total += EstimateTokenCount(e.systemPrompt)
	}
	for _, tool := range e.tools {
		total += e.toolTokens(tool)
	}
	return total
}

func (e *OverheadEstimator) toolTokens(tool types.ToolDefinition) int {
	key := e.cacheKey(tool)
	if count, ok := e.cache.Get(key); ok {
		return count
	}
	count := EstimateTokenCount(tool.Name) +
		EstimateTokenCount(tool.Description) +
		EstimateTokenCount(string(tool.Schema))
	e.cache.Add(key, count)
	return count
}

// cacheKey fingerprints a tool definition so schema changes invalidate the
// cached estimate.
func (e *OverheadEstimator) cacheKey(tool types.ToolDefinition) string {
	hash := sha256.Sum256(append([]byte(tool.Description), tool.Schema...))
	return fmt.Sprintf("%s:%x", tool.Name, hash[:8])
}
