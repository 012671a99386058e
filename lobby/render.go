package lobby

import (
	"fmt"
	"strings"
)

// joinURL is the canonical lobby link template on the remote service.
const joinURL = "https://www.codingame.com/clashofcode/clash/%s"

// modeLabels maps mode tags to their human-facing labels.
var modeLabels = map[string]string{
	"RANDOM":   ":game_die: Random",
	"FASTEST":  ":rocket: Fastest",
	"REVERSE":  ":brain: Reverse",
	"SHORTEST": ":scroll: Shortest",
}

// ModeLabel renders a mode tag for the published message.
func ModeLabel(mode string) string {
	if label, ok := modeLabels[mode]; ok {
		return label
	}
	if mode == "" {
		return mode
	}
	return strings.ToUpper(mode[:1]) + strings.ToLower(mode[1:])
}

// RenderSuccess is the published lobby message: mode, language, requester
// and the join link.
func RenderSuccess(mode, language, requester, handle string) string {
	header := fmt.Sprintf("%s  -  %s", ModeLabel(mode), language)
	if requester != "" {
		header += "  -  started by " + requester
	}
	return header + "\n" + fmt.Sprintf(joinURL, handle)
}

// RenderRejection names the input that failed to resolve.
func RenderRejection(req Request, modeOK, langOK bool) string {
	switch {
	case !modeOK && !langOK:
		return fmt.Sprintf("Unknown mode %q and language %q.", req.ModeInput, req.LanguageInput)
	case !modeOK:
		return fmt.Sprintf("Unknown mode %q.", req.ModeInput)
	default:
		return fmt.Sprintf("Unknown language %q.", req.LanguageInput)
	}
}

// RenderUnavailable is the generic notice for a failed create call. It covers
// both remote outages and an expired bot session; the requester cannot tell
// them apart and should not need to.
func RenderUnavailable() string {
	return "CodinGame is unavailable right now, try again in a bit."
}
