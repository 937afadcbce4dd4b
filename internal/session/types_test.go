package session

import "testing"

func TestParseState(t *testing.T) {
	cases := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{in: "", want: StateIdle},
		{in: "awaiting_condition", want: StateAwaitingCondition},
		{in: "Would you like to add a new coin", want: StateAwaitingAddContinuation},
		{in: "Delete", want: StateAwaitingDeleteConfirmation},
		{in: "Leave", want: StateAwaitingNextAction},
		{in: "AddCoinIntent", want: StateAwaitingCondition},
		{in: "something else", want: StateIdle, wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseState(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseState(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseState(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDialogAttributesRoundTrip(t *testing.T) {
	d := Dialog{
		State:     StateAwaitingCondition,
		Year:      "2020",
		City:      "Philadelphia",
		CoinType:  "Nickel",
		Condition: "Uncirculated",
		Premium:   true,
	}
	got, ok, err := DialogFromAttributes(d.Attributes())
	if err != nil || !ok {
		t.Fatalf("DialogFromAttributes() = %v, %v", ok, err)
	}
	if got != d {
		t.Fatalf("DialogFromAttributes() = %+v, want %+v", got, d)
	}
}

func TestDialogFromLegacyAttributes(t *testing.T) {
	got, ok, err := DialogFromAttributes(map[string]any{"previous_intent": "Leave"})
	if err != nil || !ok {
		t.Fatalf("DialogFromAttributes() = %v, %v", ok, err)
	}
	if got.State != StateAwaitingNextAction {
		t.Fatalf("State = %q, want %q", got.State, StateAwaitingNextAction)
	}

	_, ok, _ = DialogFromAttributes(nil)
	if ok {
		t.Fatalf("nil attributes should not carry a dialog")
	}
}

func TestDialogClearCoin(t *testing.T) {
	d := Dialog{State: StateAwaitingAddContinuation, Year: "1", City: "2", CoinType: "3", Condition: "4", Premium: true}
	d.ClearCoin()
	if d.Year != "" || d.City != "" || d.CoinType != "" || d.Condition != "" {
		t.Fatalf("ClearCoin() left fields: %+v", d)
	}
	if d.State != StateAwaitingAddContinuation || !d.Premium {
		t.Fatalf("ClearCoin() touched state or premium: %+v", d)
	}
}
