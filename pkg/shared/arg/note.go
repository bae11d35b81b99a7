package arg

import (
	"fmt"
	"strings"
)

// HandleNote returns the note argument, or "" when none was given. Several
// words are joined so that unquoted titles with spaces still resolve.
func HandleNote(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// HandleLink returns the required link argument.
func HandleLink(args []string) (string, error) {
	link := HandleNote(args)
	if link == "" {
		return "", fmt.Errorf("error: No link given. Try again")
	}
	return link, nil
}
