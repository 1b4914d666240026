package completion

import "testing"

func TestParseCompletionMode(t *testing.T) {
	cases := []struct {
		in   string
		want CompletionMode
	}{
		{"aggregator", ModeAggregator},
		{"excluded", ModeExcluded},
		{"completable", ModeCompletable},
		{"", ModeCompletable},        // missing metadata fails closed
		{"unknown", ModeCompletable}, // unrecognized value fails closed
	}
	for _, tc := range cases {
		if got := ParseCompletionMode(tc.in); got != tc.want {
			t.Errorf("ParseCompletionMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCompletionMode_String(t *testing.T) {
	for mode, want := range map[CompletionMode]string{
		ModeCompletable: "completable",
		ModeAggregator:  "aggregator",
		ModeExcluded:    "excluded",
	} {
		if got := mode.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}

func TestClassifiers(t *testing.T) {
	s := smallTree(t)

	if !isAggregatorOrExcluded(s, "root") {
		t.Error("aggregator root should classify as aggregator-or-excluded")
	}
	if !isAggregatorOrExcluded(s, "b") || !isExcluded(s, "b") {
		t.Error("excluded b should classify as excluded and aggregator-or-excluded")
	}
	if isAggregatorOrExcluded(s, "a") || isExcluded(s, "a") {
		t.Error("completable a should classify as neither")
	}
	// Unknown keys fall back to the completable treatment.
	if isAggregatorOrExcluded(s, "ghost") {
		t.Error("unknown key should fail closed to completable")
	}
}
