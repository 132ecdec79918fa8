// Package dialog is the pure conversation state engine: intent
// classification and state transitions for the memorization flows. It never
// touches storage; the service layer feeds it a snapshot of persisted data
// and applies the effects it returns.
package dialog

import (
	"strings"
)

type Action string

const (
	ActionStart       Action = "start"
	ActionContinue    Action = "continue"
	ActionStop        Action = "stop"
	ActionCancel      Action = "cancel"
	ActionRemove      Action = "remove"
	ActionRemoveIndex Action = "remove_starting"
	ActionCheck       Action = "check"
	ActionNone        Action = "none"
)

type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingGroupName    State = "awaiting_group_name"
	StateCollectingSnippets   State = "collecting_snippets"
	StateAwaitingRemovalIndex State = "awaiting_removal_index"
)

// Trigger phrases. Matched as prefixes, so a command always works even when
// the user is mid-flow.
const (
	TriggerStart  = "覚えて"
	TriggerRemove = "忘れて"
	TriggerCancel = "やめる"
	TriggerStop   = "終了する"
	TriggerCheck  = "リストを見せて"
)

// MatchTrigger checks the fixed trigger phrases in precedence order.
func MatchTrigger(text string) (Action, bool) {
	switch {
	case strings.HasPrefix(text, TriggerStart):
		return ActionStart, true
	case strings.HasPrefix(text, TriggerRemove):
		return ActionRemove, true
	case strings.HasPrefix(text, TriggerCancel):
		return ActionCancel, true
	case strings.HasPrefix(text, TriggerStop):
		return ActionStop, true
	case strings.HasPrefix(text, TriggerCheck):
		return ActionCheck, true
	}
	return "", false
}

// Classify maps an inbound message to an action. Trigger phrases win
// unconditionally; only when none matches does the open-flow state decide.
// The ordering is load-bearing: reordering changes which literal inputs are
// swallowed by an open flow.
func Classify(text string, state State) Action {
	if action, ok := MatchTrigger(text); ok {
		return action
	}
	switch state {
	case StateAwaitingRemovalIndex:
		return ActionRemoveIndex
	case StateAwaitingGroupName, StateCollectingSnippets:
		return ActionContinue
	}
	return ActionNone
}

// CheckQuery extracts the alias following the "show list" trigger. ok is
// false when the message is not a check trigger at all; an empty alias with
// ok true means the bare trigger was sent.
func CheckQuery(text string) (string, bool) {
	if !strings.HasPrefix(text, TriggerCheck) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(text, TriggerCheck)), true
}
