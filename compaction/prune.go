package compaction

import (
	"github.com/youssefsiam38/compactpg/types"
)

// PruneInterruptedToolCalls removes messages whose tool-call/tool-return
// pairing is broken. A message containing a tool call with no matching
// return anywhere in the sequence is dropped in full, as is a message
// containing a return with no matching call. Providers reject histories
// with half a pair, so dropping the whole message is the safe repair.
// Order of the surviving messages is preserved.
//
// Dropping a message for one orphaned part can orphan the partners of its
// other parts, so the scan repeats over the survivors until a pass drops
// nothing.
func PruneInterruptedToolCalls(messages []*types.Message) []*types.Message {
	out := make([]*types.Message, 0, len(messages))
	for _, msg := range messages {
		if msg != nil {
			out = append(out, msg)
		}
	}

	for {
		called := make(map[string]struct{})
		returned := make(map[string]struct{})
		for _, msg := range out {
			for _, p := range msg.Parts {
				switch p.Type {
				case types.PartTypeToolCall:
					called[p.ToolCallID] = struct{}{}
				case types.PartTypeToolReturn:
					returned[p.ToolCallID] = struct{}{}
				}
			}
		}

		kept := make([]*types.Message, 0, len(out))
		for _, msg := range out {
			if !orphaned(msg, called, returned) {
				kept = append(kept, msg)
			}
		}
		if len(kept) == len(out) {
			return kept
		}
		out = kept
	}
}

// orphaned reports whether any tool part in the message lacks its
// counterpart in the sequence.
func orphaned(msg *types.Message, called, returned map[string]struct{}) bool {
	for _, p := range msg.Parts {
		switch p.Type {
		case types.PartTypeToolCall:
			if _, ok := returned[p.ToolCallID]; !ok {
				return true
			}
		case types.PartTypeToolReturn:
			if _, ok := called[p.ToolCallID]; !ok {
				return true
			}
		}
	}
	return false
}

// FilterHugeMessages drops any single message whose estimated token cost
// reaches maxTokens, then prunes tool pairs orphaned by the removal. A
// single giant tool output must not be allowed to blow the budget by
// itself. The filter is idempotent.
func FilterHugeMessages(messages []*types.Message, maxTokens int) []*types.Message {
	if maxTokens <= 0 {
		maxTokens = DefaultHugeMessageTokens
	}

	out := make([]*types.Message, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if EstimateMessageTokens(msg) >= maxTokens {
			continue
		}
		out = append(out, msg)
	}
	return PruneInterruptedToolCalls(out)
}
