package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/feastline/supportbot/pkg/convlog"
)

// Terminal usage report over the conversation log: volumes, top
// keywords, hourly distribution, and a rough intent breakdown.

var stopWords = map[string]struct{}{
	"i": {}, "the": {}, "is": {}, "my": {}, "a": {}, "to": {},
	"and": {}, "of": {}, "in": {}, "for": {}, "me": {}, "you": {},
	"what": {}, "can": {}, "do": {},
}

var intentBuckets = []struct {
	name     string
	keywords []string
}{
	{"Order tracking", []string{"track", "order", "status", "where", "ord"}},
	{"Restaurant discovery", []string{"restaurant", "food", "pizza", "burger", "biryani", "dosa", "hungry", "eat"}},
	{"Menu browsing", []string{"menu"}},
	{"Recommendations", []string{"popular", "best", "recommend", "suggest", "top"}},
	{"Payments & refunds", []string{"refund", "payment", "money", "paid", "charge"}},
	{"Complaints", []string{"complaint", "issue", "problem", "wrong", "late", "cold"}},
}

// Generate writes the analytics report for records to w.
func Generate(w io.Writer, records []convlog.Record) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, " SUPPORT BOT ANALYTICS REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if len(records) == 0 {
		fmt.Fprintln(w, "\nNo conversation data available yet.")
		return
	}

	writeOverview(w, records)
	writeTopKeywords(w, records)
	writeHourly(w, records)
	writeIntents(w, records)
}

func writeOverview(w io.Writer, records []convlog.Record) {
	sessions := make(map[string]struct{})
	for _, rec := range records {
		sessions[rec.SessionID] = struct{}{}
	}

	fmt.Fprintln(w, "\n📊 OVERVIEW:")
	fmt.Fprintf(w, "  Total Conversations: %d\n", len(records))
	fmt.Fprintf(w, "  Unique Sessions: %d\n", len(sessions))
	fmt.Fprintf(w, "  Avg Messages/Session: %.1f\n", float64(len(records))/float64(len(sessions)))
}

func writeTopKeywords(w io.Writer, records []convlog.Record) {
	freq := make(map[string]int)
	for _, rec := range records {
		for _, word := range strings.Fields(strings.ToLower(rec.UserMessage)) {
			word = strings.Trim(word, ".,!?'\"")
			if word == "" {
				continue
			}
			if _, skip := stopWords[word]; skip {
				continue
			}
			freq[word]++
		}
	}

	type wordCount struct {
		word  string
		count int
	}
	counts := make([]wordCount, 0, len(freq))
	for word, count := range freq {
		counts = append(counts, wordCount{word, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].word < counts[j].word
	})

	fmt.Fprintln(w, "\n🔍 TOP KEYWORDS:")
	for i, wc := range counts {
		if i == 10 {
			break
		}
		fmt.Fprintf(w, "  %s: %d\n", wc.word, wc.count)
	}
}

func writeHourly(w io.Writer, records []convlog.Record) {
	var hours [24]int
	max := 0
	for _, rec := range records {
		h := rec.CreatedAt.Hour()
		hours[h]++
		if hours[h] > max {
			max = hours[h]
		}
	}

	fmt.Fprintln(w, "\n⏱️ USAGE BY HOUR:")
	for h, count := range hours {
		if count == 0 {
			continue
		}
		bar := strings.Repeat("#", scaleBar(count, max, 40))
		fmt.Fprintf(w, "  %02d:00  %-40s %d\n", h, bar, count)
	}
}

func writeIntents(w io.Writer, records []convlog.Record) {
	counts := make(map[string]int)
	for _, rec := range records {
		norm := strings.ToLower(rec.UserMessage)
		matched := false
		for _, bucket := range intentBuckets {
			for _, k := range bucket.keywords {
				if strings.Contains(norm, k) {
					counts[bucket.name]++
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			counts["Other"]++
		}
	}

	fmt.Fprintln(w, "\n🎯 INTENT BREAKDOWN:")
	for _, bucket := range intentBuckets {
		if counts[bucket.name] > 0 {
			fmt.Fprintf(w, "  %s: %d\n", bucket.name, counts[bucket.name])
		}
	}
	if counts["Other"] > 0 {
		fmt.Fprintf(w, "  Other: %d\n", counts["Other"])
	}
}

func scaleBar(count, max, width int) int {
	if max == 0 {
		return 0
	}
	n := count * width / max
	if n == 0 {
		n = 1
	}
	return n
}
