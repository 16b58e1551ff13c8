package commands

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/telnet2/go-practice/go-sandsh"
)

// maxSuggestDistance bounds how far a typo may be from a known command.
const maxSuggestDistance = 2

// suggestCommand returns the known command closest to name, if any is within
// maxSuggestDistance edits. Flag-style aliases are never suggested.
func suggestCommand(name string) (string, bool) {
	if len(name) < 2 {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range sandsh.Commands() {
		if strings.HasPrefix(candidate, "-") || candidate == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best, best != ""
}

// suggestionFor builds the hint shown after an unknown command, or "".
func suggestionFor(line string, exitCode int) string {
	if exitCode != sandsh.ExitUnknownCmd {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	if s, ok := suggestCommand(fields[0]); ok {
		return "Did you mean '" + s + "'?"
	}
	return ""
}
