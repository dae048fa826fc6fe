package filter

import "testing"

func TestFilter_EmptyListsKeepEverything(t *testing.T) {
	f, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.Keep("anything at all") {
		t.Error("expected line to be kept with no patterns configured")
	}
}

func TestFilter_ExcludeWinsOverMatch(t *testing.T) {
	f, err := New([]string{"."}, []string{"DEBUG"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Keep("DEBUG noisy line") {
		t.Error("expected excluded line to be dropped even though it matches match_on")
	}
}

func TestFilter_MatchOnRequiresAHit(t *testing.T) {
	f, err := New([]string{"ERROR", "WARN"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string]bool{
		"ERROR disk full": true,
		"WARN low memory":  true,
		"INFO all fine":    false,
	}
	for line, want := range cases {
		if got := f.Keep(line); got != want {
			t.Errorf("Keep(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestFilter_S3Scenario(t *testing.T) {
	f, err := New(nil, []string{"DEBUG", "TRACE"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	input := []string{"INFO x", "DEBUG y", "WARN z", "TRACE w"}
	var kept []string
	for _, line := range input {
		if f.Keep(line) {
			kept = append(kept, line)
		}
	}
	want := []string{"INFO x", "WARN z"}
	if len(kept) != len(want) {
		t.Fatalf("kept %v, want %v", kept, want)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Errorf("kept[%d] = %q, want %q", i, kept[i], want[i])
		}
	}
}

func TestFilter_InvalidPatternIsConfigError(t *testing.T) {
	if _, err := New([]string{"("}, nil); err == nil {
		t.Error("expected an error for an invalid match_on pattern")
	}
	if _, err := New(nil, []string{"("}); err == nil {
		t.Error("expected an error for an invalid exclude_on pattern")
	}
}
