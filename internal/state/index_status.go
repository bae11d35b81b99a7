package state

import (
	"fmt"
	"strings"
	"time"
)

// IndexStatus summarises the index service for status lines, for example
// "notes 120 · pending 0 · rebuilt 17:42".
func (s *State) IndexStatus() string {
	if s == nil {
		return ""
	}
	return formatIndexStatus(s.Index)
}

func formatIndexStatus(svc IndexService) string {
	if svc == nil {
		return ""
	}

	stats := svc.Stats()
	parts := []string{
		fmt.Sprintf("notes %d", stats.Notes),
		fmt.Sprintf("pending %d", stats.Pending),
	}
	if !stats.LastRebuild.IsZero() {
		parts = append(parts, fmt.Sprintf("rebuilt %s", formatRebuildTime(stats.LastRebuild)))
	}

	return strings.Join(parts, " · ")
}

func formatRebuildTime(t time.Time) string {
	return t.Local().Format("15:04")
}
