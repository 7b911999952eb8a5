package rank

import (
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mnemosyne/internal/text"
)

const (
	minQueryTokenLen  = 3
	tokenHitWeight    = 3.0
	recencyScaleHours = 48.0
)

// ScoreSessionMatch scores an existing summarized session against a live
// query using lexical overlap plus a recency boost. Each query token found in
// the summary text or the topic tags is worth 3 points; the recency boost
// decays from 1.0 toward 0 as the session ages.
func ScoreSessionMatch(summaryText string, topicTags []string, query string, endedAt int64) float64 {
	return scoreSessionMatchAt(summaryText, topicTags, query, endedAt, time.Now().Unix())
}

func scoreSessionMatchAt(summaryText string, topicTags []string, query string, endedAt, now int64) float64 {
	lowered := strings.ToLower(summaryText)

	tags := map[string]struct{}{}
	for _, tag := range topicTags {
		tags[strings.ToLower(tag)] = struct{}{}
	}

	hits := 0
	for _, tok := range text.UniqueTokens(query, minQueryTokenLen) {
		if _, ok := tags[tok]; ok {
			hits++
			continue
		}
		if strings.Contains(lowered, tok) {
			hits++
		}
	}

	return float64(hits)*tokenHitWeight + recencyBoost(endedAt, now)
}

// recencyBoost is 1/(1+ageHours/48): 1.0 for a session ending now, ~0.167 at
// ten days old, strictly decreasing in age.
func recencyBoost(endedAt, now int64) float64 {
	ageHours := ageInHours(endedAt, now)
	return 1 / (1 + ageHours/recencyScaleHours)
}

func ageInHours(ts, now int64) float64 {
	age := now - ts
	if age < 0 {
		age = 0
	}
	return float64(age) / 3600
}
