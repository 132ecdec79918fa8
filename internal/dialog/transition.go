package dialog

import (
	"fmt"
	"strconv"
	"strings"
)

// User-facing reply texts.
const (
	ReplyAskGroupName    = "覚えた言葉を呼び出すときに使う名前を教えてください"
	ReplyAskSnippet      = "覚えさせたい言葉を入力してください。覚えさせるのをやめる場合は「やめる」と入力してください"
	ReplySnippetSaved    = "保存しました。続けて保存する言葉を入力するか、このまま終了する場合は「" + TriggerStop + "」と入力してください"
	ReplyStopped         = "終了しました！覚えさせた言葉リストを確認するには「" + TriggerCheck + "」と入力してください"
	ReplyCancelled       = "覚えるのを諦めました。覚えさせたい言葉が見つかったら「" + TriggerStart + "」と入力してね"
	ReplyAskRemovalIndex = "忘れさせたい言葉の番号を入力してください"
	ReplyAskNumber       = "番号を入力してください"
	ReplyNotFound        = "その言葉は覚えてません..."
	ReplyGenericError    = "エラーが発生しました"
)

// GroupRef identifies a group in a snapshot without dragging the full row
// into the pure layer.
type GroupRef struct {
	ID    uint
	Alias string
}

// Input is the snapshot of persisted data a transition may consult. The
// service fills only the fields the classified action needs.
type Input struct {
	Action Action
	Text   string

	// Groups is the user's groups in creation order (remove flows, list).
	Groups []GroupRef
	// Latest is the most recently created group (snippet inserts).
	Latest *GroupRef
	// Pending is the group created by the open memorize flow (cancel).
	Pending *GroupRef
	// Matches holds the stock contents of the alias-resolved group, with
	// MatchFound distinguishing "group not found" from "group empty".
	Matches    []string
	MatchFound bool
}

type EffectKind int

const (
	// EffectCreateGroup inserts a StockGroup with Alias. The applied group
	// becomes the pending group of the flow.
	EffectCreateGroup EffectKind = iota
	// EffectCreateStock inserts a Stock with Content under GroupID.
	EffectCreateStock
	// EffectDeleteGroup deletes the group GroupID and all its stocks.
	EffectDeleteGroup
)

type Effect struct {
	Kind    EffectKind
	Alias   string
	GroupID uint
	Content string
}

type Result struct {
	Next    State
	Effects []Effect
	Replies []string
}

func errorResult(state State) Result {
	return Result{Next: state, Replies: []string{ReplyGenericError}}
}

// Transition advances the conversation: given the current state and an input
// snapshot it returns the next state, the storage effects to apply, and the
// replies to send. Pure; the caller applies effects and persists Next
// atomically.
//
// The input's action is re-validated against what Classify would produce for
// the same text and state. A mismatch means the executor was wired wrong and
// yields the generic error reply with no effects.
func Transition(state State, in Input) Result {
	if Classify(in.Text, state) != in.Action {
		return errorResult(state)
	}

	switch in.Action {
	case ActionStart:
		return Result{
			Next:    StateAwaitingGroupName,
			Replies: []string{ReplyAskGroupName},
		}

	case ActionContinue:
		return transitionContinue(state, in)

	case ActionStop:
		// Unconditional: finishing with no open flow is still a success.
		return Result{
			Next:    StateIdle,
			Replies: []string{ReplyStopped},
		}

	case ActionCancel:
		result := Result{
			Next:    StateIdle,
			Replies: []string{ReplyCancelled},
		}
		// No pending group means the flow never got past naming; the reply
		// is still sent.
		if in.Pending != nil {
			result.Effects = []Effect{{Kind: EffectDeleteGroup, GroupID: in.Pending.ID}}
		}
		return result

	case ActionRemove:
		return Result{
			Next:    StateAwaitingRemovalIndex,
			Replies: []string{ReplyAskRemovalIndex + "\n" + RenderGroupList(in.Groups)},
		}

	case ActionRemoveIndex:
		return transitionRemoveIndex(state, in)

	case ActionCheck:
		return transitionCheck(state, in)

	case ActionNone:
		return Result{
			Next:    state,
			Replies: lookupReplies(in),
		}
	}

	return errorResult(state)
}

func transitionContinue(state State, in Input) Result {
	switch state {
	case StateAwaitingGroupName:
		return Result{
			Next:    StateCollectingSnippets,
			Effects: []Effect{{Kind: EffectCreateGroup, Alias: in.Text}},
			Replies: []string{ReplyAskSnippet},
		}
	case StateCollectingSnippets:
		if in.Latest == nil {
			// Group vanished under the open flow; abandon it.
			return Result{Next: StateIdle, Replies: []string{ReplyGenericError}}
		}
		return Result{
			Next:    StateCollectingSnippets,
			Effects: []Effect{{Kind: EffectCreateStock, GroupID: in.Latest.ID, Content: in.Text}},
			Replies: []string{ReplySnippetSaved},
		}
	}
	return errorResult(state)
}

func transitionRemoveIndex(state State, in Input) Result {
	index, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil {
		return Result{
			Next:    StateAwaitingRemovalIndex,
			Replies: []string{ReplyAskNumber},
		}
	}

	// The presented list is 1-based.
	i := index - 1
	if i < 0 || i >= len(in.Groups) {
		return Result{
			Next:    StateAwaitingRemovalIndex,
			Replies: []string{ReplyNotFound},
		}
	}

	target := in.Groups[i]
	remaining := make([]GroupRef, 0, len(in.Groups)-1)
	remaining = append(remaining, in.Groups[:i]...)
	remaining = append(remaining, in.Groups[i+1:]...)

	effects := []Effect{{Kind: EffectDeleteGroup, GroupID: target.ID}}

	if len(remaining) == 0 {
		return Result{
			Next:    StateIdle,
			Effects: effects,
			Replies: []string{ReplyNotFound},
		}
	}

	reply := fmt.Sprintf(
		"%sに関する言葉を忘れました。続けて忘れさせたい言葉があれば番号を入力してください\n%s\nこのまま終わる場合は「%s」って入力してね",
		target.Alias, RenderGroupList(remaining), TriggerStop,
	)
	return Result{
		Next:    StateAwaitingRemovalIndex,
		Effects: effects,
		Replies: []string{reply},
	}
}

func transitionCheck(state State, in Input) Result {
	alias, ok := CheckQuery(in.Text)
	if ok && alias != "" {
		return Result{Next: state, Replies: lookupReplies(in)}
	}
	// Bare trigger: show the group list itself.
	if len(in.Groups) == 0 {
		return Result{Next: state, Replies: []string{ReplyNotFound}}
	}
	return Result{Next: state, Replies: []string{RenderGroupList(in.Groups)}}
}

// lookupReplies turns an alias lookup snapshot into replies: every stored
// snippet as its own message, or a single not-found.
func lookupReplies(in Input) []string {
	if !in.MatchFound || len(in.Matches) == 0 {
		return []string{ReplyNotFound}
	}
	return in.Matches
}

// RenderGroupList renders a 1-based numbered alias list, one group per line.
func RenderGroupList(groups []GroupRef) string {
	lines := make([]string, 0, len(groups))
	for i, g := range groups {
		lines = append(lines, fmt.Sprintf("%d: %s", i+1, g.Alias))
	}
	return strings.Join(lines, "\n")
}
