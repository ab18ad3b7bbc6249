package compaction

import (
	"github.com/youssefsiam38/compactpg/types"
)

// Truncate enforces a hard token budget by dropping the oldest messages
// after the first, in chronological order, until the estimated total fits
// protectedTokens or only the first message remains. It is a pure
// budget-enforcement mechanism, independent of summarization, used when
// summarization is disabled, fails, or is insufficient.
//
// The first message is always kept, for any budget including zero or
// negative values, so the result is never empty for non-empty input.
func Truncate(messages []*types.Message, protectedTokens int) []*types.Message {
	if len(messages) <= 1 {
		return messages
	}

	total := SumMessageTokens(messages)
	start := 1
	for start < len(messages) && total > protectedTokens {
		total -= EstimateMessageTokens(messages[start])
		start++
	}

	out := make([]*types.Message, 0, 1+len(messages)-start)
	out = append(out, messages[0])
	out = append(out, messages[start:]...)
	return out
}
