package compaction

import (
	"github.com/youssefsiam38/compactpg/types"
)

// SplitForProtectedSummarization partitions history into the messages
// eligible for summarization and the protected remainder. The first
// message is the anchor turn and is always protected; the tail is
// protected by recency, walking backward until both the PreserveLastN
// window and the ProtectedTokens budget are exhausted. Everything strictly
// between the anchor and the protected tail is eligible. A tool call and
// its return always land on the same side of the boundary; the protected
// tail extends to swallow a straddling pair.
//
// The two returned slices are an exact partition of the input: no message
// appears in both and none is dropped. Histories of two messages or fewer
// have no meaningful middle and are returned fully protected.
func SplitForProtectedSummarization(messages []*types.Message, cfg *Config) (toSummarize, protected []*types.Message) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(messages) <= 2 {
		return nil, messages
	}

	// splitIdx is the first index of the protected tail.
	splitIdx := len(messages)
	tokens := 0
	for i := len(messages) - 1; i >= 1; i-- {
		cost := EstimateMessageTokens(messages[i])
		inRecentWindow := len(messages)-1-i < cfg.PreserveLastN
		if !inRecentWindow && tokens+cost > cfg.ProtectedTokens {
			break
		}
		tokens += cost
		splitIdx = i
	}

	splitIdx = adjustForToolPairs(messages, splitIdx)

	toSummarize = messages[1:splitIdx]
	protected = make([]*types.Message, 0, 1+len(messages)-splitIdx)
	protected = append(protected, messages[0])
	protected = append(protected, messages[splitIdx:]...)

	if len(toSummarize) == 0 {
		return nil, protected
	}
	return toSummarize, protected
}

// adjustForToolPairs moves the boundary so no tool call/return pair
// straddles it. Summarizing one half of a pair orphans the protected
// half, which the integrity pruner would then silently drop. Protection
// only ever grows: when a protected part's partner sits in the eligible
// middle, the boundary moves back to cover it. Newly protected messages
// can bring in further pair ids, so the scan repeats until stable.
func adjustForToolPairs(messages []*types.Message, splitIdx int) int {
	for splitIdx > 1 {
		ids := make(map[string]struct{})
		collectToolIDs(messages[0], ids) // the anchor is always protected
		for _, msg := range messages[splitIdx:] {
			collectToolIDs(msg, ids)
		}
		if len(ids) == 0 {
			return splitIdx
		}

		moved := false
		for i := 1; i < splitIdx; i++ {
			if sharesToolID(messages[i], ids) {
				splitIdx = i
				moved = true
				break
			}
		}
		if !moved {
			return splitIdx
		}
	}
	return splitIdx
}

func collectToolIDs(msg *types.Message, ids map[string]struct{}) {
	if msg == nil {
		return
	}
	for _, p := range msg.Parts {
		if p.Type == types.PartTypeToolCall || p.Type == types.PartTypeToolReturn {
			ids[p.ToolCallID] = struct{}{}
		}
	}
}

func sharesToolID(msg *types.Message, ids map[string]struct{}) bool {
	if msg == nil {
		return false
	}
	for _, p := range msg.Parts {
		if p.Type != types.PartTypeToolCall && p.Type != types.PartTypeToolReturn {
			continue
		}
		if _, ok := ids[p.ToolCallID]; ok {
			return true
		}
	}
	return false
}
