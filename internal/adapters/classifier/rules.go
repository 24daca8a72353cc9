package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
)

// Slot extraction patterns. Dates normalize to YYYY-MM-DD and times to 24h
// HH:MM so downstream handlers never re-parse provider-specific formats.
var (
	datePattern  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	timePattern  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	hourPattern  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{6,}\d`)
	namePattern  = regexp.MustCompile(`(?i)\bmy name is ([a-z]+(?: [a-z]+)?)`)
)

// RulesClassifier classifies with keyword heuristics. It backs deployments
// without an oracle endpoint and keeps tests hermetic.
type RulesClassifier struct {
	now func() time.Time
}

// RulesOption applies a configuration option to the RulesClassifier.
type RulesOption func(*RulesClassifier)

// WithClock overrides the clock used to resolve relative dates.
func WithClock(now func() time.Time) RulesOption {
	return func(c *RulesClassifier) {
		if now != nil {
			c.now = now
		}
	}
}

// NewRulesClassifier creates a keyword rules classifier.
func NewRulesClassifier(opts ...RulesOption) *RulesClassifier {
	c := &RulesClassifier{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify applies keyword rules to text. It never fails.
func (c *RulesClassifier) Classify(_ context.Context, text string, _ Meta) intent.Intent {
	lowered := strings.ToLower(text)
	fields := c.extractFields(text, lowered)

	kind, confidence := classifyKeywords(lowered)
	return intent.Intent{Kind: kind, Confidence: confidence, Fields: fields}
}

func classifyKeywords(lowered string) (intent.Kind, float64) {
	switch {
	case containsAny(lowered, "reschedule", "move my appointment", "change my appointment", "different time"):
		return intent.KindReschedule, 0.9
	case containsAny(lowered, "cancel"):
		return intent.KindCancel, 0.9
	case containsAny(lowered, "book", "appointment", "schedule", "reserve", "come in"):
		return intent.KindSchedule, 0.85
	case containsAny(lowered, "my name is", "reach me", "call me back", "my number", "my email"):
		return intent.KindContact, 0.8
	case containsAny(lowered, "hours", "open", "price", "cost", "where", "what", "how", "when", "do you", "?"):
		return intent.KindFAQ, 0.7
	}
	return intent.KindUnknown, 0.2
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (c *RulesClassifier) extractFields(text, lowered string) map[string]string {
	fields := make(map[string]string)

	if m := datePattern.FindString(text); m != "" {
		fields[intent.SlotDate] = m
	} else if strings.Contains(lowered, "tomorrow") {
		fields[intent.SlotDate] = c.now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	} else if strings.Contains(lowered, "today") {
		fields[intent.SlotDate] = c.now().UTC().Format("2006-01-02")
	}

	if t, ok := extractTime(lowered); ok {
		fields[intent.SlotTime] = t
	}
	if m := emailPattern.FindString(text); m != "" {
		fields[intent.SlotEmail] = m
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		fields[intent.SlotName] = titleCase(m[1])
	}
	if m := phonePattern.FindString(text); m != "" {
		fields[intent.SlotPhone] = strings.TrimSpace(m)
	}
	return fields
}

func extractTime(lowered string) (string, bool) {
	if m := timePattern.FindStringSubmatch(lowered); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		hour = to24h(hour, m[3])
		if hour < 24 && minute < 60 {
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		}
	}
	if m := hourPattern.FindStringSubmatch(lowered); m != nil {
		hour, _ := strconv.Atoi(m[1])
		hour = to24h(hour, m[2])
		if hour < 24 {
			return fmt.Sprintf("%02d:00", hour), true
		}
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func to24h(hour int, meridiem string) int {
	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}
