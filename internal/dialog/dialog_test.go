package dialog

import "testing"

func TestClassifyTriggerPrecedence(t *testing.T) {
	states := []State{StateIdle, StateAwaitingGroupName, StateCollectingSnippets, StateAwaitingRemovalIndex}

	cases := []struct {
		name string
		text string
		want Action
	}{
		{name: "start", text: "覚えて", want: ActionStart},
		{name: "start_with_suffix", text: "覚えてください", want: ActionStart},
		{name: "remove", text: "忘れて", want: ActionRemove},
		{name: "cancel", text: "やめる", want: ActionCancel},
		{name: "stop", text: "終了する", want: ActionStop},
		{name: "check", text: "リストを見せて", want: ActionCheck},
	}

	// Trigger phrases win regardless of any open flow.
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, state := range states {
				got := Classify(tc.text, state)
				if got != tc.want {
					t.Fatalf("Classify(%q, %s)=%s, want %s", tc.text, state, got, tc.want)
				}
			}
		})
	}
}

func TestClassifyStateDependent(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		state State
		want  Action
	}{
		{name: "plain_text_idle", text: "買い物リスト", state: StateIdle, want: ActionNone},
		{name: "plain_text_awaiting_name", text: "買い物リスト", state: StateAwaitingGroupName, want: ActionContinue},
		{name: "plain_text_collecting", text: "にんじん", state: StateCollectingSnippets, want: ActionContinue},
		{name: "number_awaiting_removal", text: "2", state: StateAwaitingRemovalIndex, want: ActionRemoveIndex},
		{name: "text_awaiting_removal", text: "やっぱりいい", state: StateAwaitingRemovalIndex, want: ActionRemoveIndex},
		{name: "trigger_mid_word_not_prefix", text: "これを覚えて", state: StateIdle, want: ActionNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, tc.state)
			if got != tc.want {
				t.Fatalf("Classify(%q, %s)=%s, want %s", tc.text, tc.state, got, tc.want)
			}
		})
	}
}

func TestCheckQuery(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		wantAlias string
		wantOK    bool
	}{
		{name: "bare_trigger", text: "リストを見せて", wantAlias: "", wantOK: true},
		{name: "trigger_with_alias", text: "リストを見せて 買い物", wantAlias: "買い物", wantOK: true},
		{name: "not_a_check", text: "買い物", wantAlias: "", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alias, ok := CheckQuery(tc.text)
			if alias != tc.wantAlias || ok != tc.wantOK {
				t.Fatalf("CheckQuery(%q)=(%q,%v), want (%q,%v)", tc.text, alias, ok, tc.wantAlias, tc.wantOK)
			}
		})
	}
}
