package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Drift checks only start once a session has this many prompts and edits.
const (
	DriftMinPrompts = 6
	DriftMinEdits   = 6
	// DriftThreshold is the relevance percentage below which a prompt is
	// considered off course.
	DriftThreshold = 20.0
)

var keywordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopWords = toSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "can", "shall", "to", "of", "in", "for",
	"on", "with", "at", "by", "from", "as", "into", "through", "during",
	"before", "after", "above", "below", "between", "and", "but", "or",
	"nor", "not", "so", "yet", "both", "either", "neither", "each",
	"every", "all", "any", "few", "more", "most", "other", "some",
	"such", "no", "only", "own", "same", "than", "too", "very",
	"just", "because", "if", "when", "where", "how", "what", "which",
	"who", "whom", "this", "that", "these", "those", "i", "me", "my",
	"we", "us", "our", "you", "your", "he", "him", "his", "she", "her",
	"it", "its", "they", "them", "their", "please", "thanks", "thank",
)

// Keywords extracts the distinct meaningful words of a prompt.
func Keywords(text string) map[string]bool {
	words := map[string]bool{}
	for _, w := range keywordPattern.FindAllString(strings.ToLower(text), -1) {
		if !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

// Intent is the drift state of one session.
type Intent struct {
	OriginalKeywords []string `json:"original_keywords"`
	PromptCount      int      `json:"prompt_count"`
}

// Drift describes a prompt that strayed from the session's first prompt.
type Drift struct {
	// Relevance is the share of the original keywords still present, in
	// percent.
	Relevance float64
	// Keywords lists up to eight original keywords, sorted.
	Keywords []string
}

// DriftTracker stores intent state in a scratch directory.
type DriftTracker struct {
	dir string
}

func NewDriftTracker(dir string) *DriftTracker {
	return &DriftTracker{dir: dir}
}

func (t *DriftTracker) path(sessionID string) string {
	id := unsafeIDChars.ReplaceAllString(sessionID, "_")
	return filepath.Join(t.dir, "intent-"+id+".json")
}

// Observe records a prompt. The first prompt of a session becomes its
// intent. Once the session is long enough, a prompt whose relevance to the
// intent is below DriftThreshold is reported.
func (t *DriftTracker) Observe(sessionID, prompt string, editCount int) (*Drift, error) {
	intent := t.load(sessionID)
	current := Keywords(prompt)

	if intent.OriginalKeywords == nil {
		intent.OriginalKeywords = sortedKeys(current)
		intent.PromptCount = 1
	} else {
		intent.PromptCount++
	}

	if err := t.save(sessionID, intent); err != nil {
		return nil, err
	}

	if intent.PromptCount < DriftMinPrompts || editCount < DriftMinEdits {
		return nil, nil
	}
	if len(intent.OriginalKeywords) == 0 || len(current) == 0 {
		return nil, nil
	}

	overlap := 0
	for _, w := range intent.OriginalKeywords {
		if current[w] {
			overlap++
		}
	}
	relevance := float64(overlap) / float64(len(intent.OriginalKeywords)) * 100
	if relevance >= DriftThreshold {
		return nil, nil
	}

	keywords := intent.OriginalKeywords
	if len(keywords) > 8 {
		keywords = keywords[:8]
	}
	return &Drift{Relevance: relevance, Keywords: keywords}, nil
}

func (t *DriftTracker) load(sessionID string) *Intent {
	intent := &Intent{}
	data, err := os.ReadFile(t.path(sessionID))
	if err != nil || json.Unmarshal(data, intent) != nil {
		return &Intent{}
	}
	return intent
}

func (t *DriftTracker) save(sessionID string, intent *Intent) error {
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return fmt.Errorf("create drift directory: %w", err)
	}
	data, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	if err := os.WriteFile(t.path(sessionID), data, 0644); err != nil {
		return fmt.Errorf("write intent: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
