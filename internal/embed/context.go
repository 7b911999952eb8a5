package embed

import (
	"strings"
	"time"
)

const maxHeaderParticipants = 8

// ContextMeta carries the optional session metadata that gets prepended to a
// summary before embedding, so semantic matches can key off group identity,
// time window, and participants rather than prose alone.
type ContextMeta struct {
	ChatID       string
	StartedAt    int64
	EndedAt      int64
	Participants []string
	TopicTags    []string
}

// BuildContextInput prepends a metadata header to summary. Only supplied
// fields produce header lines; with no metadata at all the summary comes
// back unchanged.
func BuildContextInput(summary string, meta *ContextMeta) string {
	if meta == nil {
		return summary
	}

	var lines []string
	if meta.ChatID != "" {
		lines = append(lines, "group: "+meta.ChatID)
	}
	if meta.StartedAt > 0 && meta.EndedAt > 0 {
		lines = append(lines, "time: "+isoMinute(meta.StartedAt)+" to "+isoMinute(meta.EndedAt))
	}
	if len(meta.Participants) > 0 {
		shown := meta.Participants
		if len(shown) > maxHeaderParticipants {
			shown = shown[:maxHeaderParticipants]
		}
		lines = append(lines, "participants: "+strings.Join(shown, ", "))
	}
	if len(meta.TopicTags) > 0 {
		lines = append(lines, "topics: "+strings.Join(meta.TopicTags, ", "))
	}

	if len(lines) == 0 {
		return summary
	}
	return strings.Join(lines, " | ") + "\n" + summary
}

// isoMinute formats epoch seconds as minute-precision ISO 8601 in UTC.
func isoMinute(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02T15:04")
}
