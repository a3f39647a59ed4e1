package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" authorization=Bearer x , bad, =empty, team=learn ")
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d (%v)", len(got), got)
	}
	if got["authorization"] != "Bearer x" {
		t.Fatalf("authorization: want=%q got=%q", "Bearer x", got["authorization"])
	}
	if got["team"] != "learn" {
		t.Fatalf("team: want=%q got=%q", "learn", got["team"])
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input: want nil")
	}
}
