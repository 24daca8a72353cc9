package collab

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Match is one knowledge base hit.
type Match struct {
	Answer string
	Score  float64
}

// KnowledgeBase answers free-text questions with scored matches.
type KnowledgeBase interface {
	// Search returns matches ordered by descending score. An empty slice
	// means nothing matched at all.
	Search(ctx context.Context, question string) ([]Match, error)
}

// kbEntry pairs trigger keywords with a canned answer.
type kbEntry struct {
	keywords []string
	answer   string
}

// InMemoryKnowledgeBase scores entries by the fraction of their keywords
// present in the question.
type InMemoryKnowledgeBase struct {
	mu      sync.RWMutex
	entries []kbEntry
}

// NewInMemoryKnowledgeBase creates a knowledge base with the given entries.
// Each call to Add registers one answer behind its trigger keywords.
func NewInMemoryKnowledgeBase() *InMemoryKnowledgeBase {
	return &InMemoryKnowledgeBase{}
}

// Add registers an answer behind its trigger keywords.
func (kb *InMemoryKnowledgeBase) Add(answer string, keywords ...string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	kb.entries = append(kb.entries, kbEntry{keywords: lowered, answer: answer})
}

// Search scores every entry against the question.
func (kb *InMemoryKnowledgeBase) Search(_ context.Context, question string) ([]Match, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	lowered := strings.ToLower(question)
	var out []Match
	for _, e := range kb.entries {
		if len(e.keywords) == 0 {
			continue
		}
		hits := 0
		for _, k := range e.keywords {
			if strings.Contains(lowered, k) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, Match{
			Answer: e.answer,
			Score:  float64(hits) / float64(len(e.keywords)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
