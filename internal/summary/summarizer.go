package summary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/mnemosyne/internal/conversation"
	"github.com/MikeSquared-Agency/mnemosyne/internal/text"
)

const (
	maxSelectedMessages = 6
	maxParticipants     = 6
	maxTopicTags        = 4
	maxMessageChars     = 90
	maxSummaryChars     = 900
	minTagTokenLen      = 3
)

var (
	urlPattern        = regexp.MustCompile(`https?://`)
	schedulingPattern = regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|next\s+(mon|tues|wednes|thurs|fri|satur|sun)day|\d{1,2}:\d{2}|\d{1,2}\s?(am|pm))\b`)
	commitmentPattern = regexp.MustCompile(`(?i)\b(let'?s|i'?m in|i'?ll|confirmed?|decided?|agreed?|count me in|sounds good|deal)\b`)
)

// Result is the distilled output for one session window.
type Result struct {
	SummaryText string
	TopicTags   []string
}

// Summarize distills an ordered message window into a compact summary plus
// topic tags. Messages are scored for salience, the top few are re-sorted
// chronologically to preserve narrative order, and the composed text is
// capped at 900 characters. Empty input yields an empty result.
func Summarize(msgs []conversation.Message, participants []string) Result {
	if len(msgs) == 0 {
		return Result{TopicTags: []string{}}
	}

	selected := selectSalient(msgs)

	lines := make([]string, 0, len(selected))
	for _, m := range selected {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Sender, text.Truncate(strings.TrimSpace(m.Text), maxMessageChars)))
	}

	tags := topicTags(msgs)

	var segments []string
	if line := participantsLine(participants); line != "" {
		segments = append(segments, line)
	}
	if len(tags) > 0 {
		segments = append(segments, "topics: "+strings.Join(tags, ", "))
	}
	segments = append(segments, lines...)

	return Result{
		SummaryText: text.Truncate(strings.Join(segments, " | "), maxSummaryChars),
		TopicTags:   tags,
	}
}

// salience weights: questions and scheduling language matter most, links and
// commitments next, long messages a little, one-liners negatively.
func salience(m conversation.Message) int {
	score := 0
	if strings.Contains(m.Text, "?") {
		score += 3
	}
	if urlPattern.MatchString(m.Text) {
		score += 2
	}
	if schedulingPattern.MatchString(m.Text) {
		score += 3
	}
	if commitmentPattern.MatchString(m.Text) {
		score += 2
	}
	n := len([]rune(m.Text))
	if n > 100 {
		score++
	}
	if n > 200 {
		score++
	}
	if n < 15 {
		score -= 2
	}
	return score
}

// selectSalient picks the highest-scoring messages and returns them in their
// original chronological order.
func selectSalient(msgs []conversation.Message) []conversation.Message {
	type scored struct {
		idx int
		msg conversation.Message
		val int
	}

	all := make([]scored, len(msgs))
	for i, m := range msgs {
		all[i] = scored{idx: i, msg: m, val: salience(m)}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].val > all[b].val
	})

	top := all
	if len(top) > maxSelectedMessages {
		top = top[:maxSelectedMessages]
	}

	// Back to narrative order.
	sort.Slice(top, func(a, b int) bool {
		return top[a].idx < top[b].idx
	})

	out := make([]conversation.Message, len(top))
	for i, s := range top {
		out[i] = s.msg
	}
	return out
}

// topicTags returns the top tokens by frequency across the whole window,
// excluding stopwords and short tokens.
func topicTags(msgs []conversation.Message) []string {
	counts := map[string]int{}
	order := map[string]int{}

	for _, m := range msgs {
		for _, tok := range text.Tokenize(m.Text, minTagTokenLen) {
			if text.IsStopword(tok) {
				continue
			}
			if _, ok := counts[tok]; !ok {
				order[tok] = len(order)
			}
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(a, b int) bool {
		if counts[tokens[a]] != counts[tokens[b]] {
			return counts[tokens[a]] > counts[tokens[b]]
		}
		return order[tokens[a]] < order[tokens[b]]
	})

	if len(tokens) > maxTopicTags {
		tokens = tokens[:maxTopicTags]
	}
	if len(tokens) == 0 {
		return []string{}
	}
	return tokens
}

func participantsLine(participants []string) string {
	if len(participants) == 0 {
		return ""
	}
	shown := participants
	extra := 0
	if len(shown) > maxParticipants {
		extra = len(shown) - maxParticipants
		shown = shown[:maxParticipants]
	}
	line := "participants: " + strings.Join(shown, ", ")
	if extra > 0 {
		line += fmt.Sprintf(" +%d more", extra)
	}
	return line
}
