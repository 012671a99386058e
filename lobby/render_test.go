package lobby

import (
	"strings"
	"testing"
)

func TestModeLabel(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{mode: "RANDOM", want: ":game_die: Random"},
		{mode: "FASTEST", want: ":rocket: Fastest"},
		{mode: "REVERSE", want: ":brain: Reverse"},
		{mode: "SHORTEST", want: ":scroll: Shortest"},
		{mode: "MARATHON", want: "Marathon"},
		{mode: "", want: ""},
	}
	for _, tt := range tests {
		if got := ModeLabel(tt.mode); got != tt.want {
			t.Errorf("ModeLabel(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestRenderSuccess(t *testing.T) {
	got := RenderSuccess("FASTEST", "Python", "<@123>", "abcdef")
	for _, want := range []string{
		":rocket: Fastest",
		"Python",
		"started by <@123>",
		"https://www.codingame.com/clashofcode/clash/abcdef",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderSuccess() = %q, missing %q", got, want)
		}
	}

	noRequester := RenderSuccess("REVERSE", "Any", "", "h")
	if strings.Contains(noRequester, "started by") {
		t.Errorf("RenderSuccess() without requester = %q, should omit attribution", noRequester)
	}
}
