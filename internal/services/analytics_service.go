package services

import (
	"sort"
	"strings"
	"time"

	"github.com/mhidalgo/inboxq/internal/gateway"
)

// topKeywords is how many keyword stats are exposed
const topKeywords = 10

// AnalyticsServiceImpl implements AnalyticsService. All methods are pure
// functions of their input.
type AnalyticsServiceImpl struct{}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService() *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{}
}

// Compute derives keyword frequencies and per-day activity from history.
// Keywords are lower-cased whitespace tokens of each query, sorted by
// descending count; ties break by first occurrence in the history scan.
// Buckets are emitted in the order their day was first seen, not
// chronologically.
func (s *AnalyticsServiceImpl) Compute(history []gateway.ChatRecord) ([]KeywordStat, []TimeBucket) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	next := 0
	for _, rec := range history {
		for _, token := range strings.Fields(strings.ToLower(rec.Query)) {
			if _, ok := counts[token]; !ok {
				firstSeen[token] = next
				next++
			}
			counts[token]++
		}
	}

	keywords := make([]KeywordStat, 0, len(counts))
	for token, count := range counts {
		keywords = append(keywords, KeywordStat{Keyword: token, Count: count})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return firstSeen[keywords[i].Keyword] < firstSeen[keywords[j].Keyword]
	})
	if len(keywords) > topKeywords {
		keywords = keywords[:topKeywords]
	}

	bucketIndex := make(map[string]int)
	buckets := make([]TimeBucket, 0)
	for _, rec := range history {
		day := FormatDay(rec.Date)
		if i, ok := bucketIndex[day]; ok {
			buckets[i].Count++
			continue
		}
		bucketIndex[day] = len(buckets)
		buckets = append(buckets, TimeBucket{Day: day, Count: 1})
	}

	return keywords, buckets
}

// ComputeInsights derives the quick facts shown next to the suggestions
func (s *AnalyticsServiceImpl) ComputeInsights(history []gateway.ChatRecord) Insights {
	var insights Insights
	for _, rec := range history {
		if len(rec.Query) > len(insights.LongestQuery) {
			insights.LongestQuery = rec.Query
		}
	}
	if len(history) > 0 {
		// History is published newest-first; the last element is the oldest
		// entry, matching the web client's tail pick.
		insights.LastQuery = history[len(history)-1].Query
	}
	return insights
}

// FormatDay buckets an instant to its calendar day in the local time zone
func FormatDay(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
