package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/emiliopalmerini/hookguard/internal/util"
)

// LearningsFile is the learnings database, relative to the project root.
var LearningsFile = filepath.Join(".claude", "data", "learnings.json")

// Learning is a rule the agent was taught during a session.
type Learning struct {
	Date         string `json:"date"`
	Project      string `json:"project"`
	Category     string `json:"category"`
	Rule         string `json:"rule"`
	Mistake      string `json:"mistake"`
	Correction   string `json:"correction"`
	TimesApplied int    `json:"times_applied"`
}

// LearnTag is a "[LEARN] Category: rule" block found in assistant output.
type LearnTag struct {
	Category   string
	Rule       string
	Mistake    string
	Correction string
}

var (
	learnPattern      = regexp.MustCompile(`\[LEARN\]\s*(\w[\w-]*):\s*([^\n]+)`)
	mistakePattern    = regexp.MustCompile(`Mistake:\s*([^\n]+)`)
	correctionPattern = regexp.MustCompile(`Correction:\s*([^\n]+)`)
)

// followUpWindow bounds how far after a tag Mistake/Correction lines are
// looked for.
const followUpWindow = 200

// ParseLearnTags extracts every learn tag from text, in order.
func ParseLearnTags(text string) []LearnTag {
	var tags []LearnTag
	for _, m := range learnPattern.FindAllStringSubmatchIndex(text, -1) {
		tag := LearnTag{
			Category: text[m[2]:m[3]],
			Rule:     strings.TrimSpace(text[m[4]:m[5]]),
		}

		after := text[m[1]:]
		if len(after) > followUpWindow {
			after = after[:followUpWindow]
		}
		if sm := mistakePattern.FindStringSubmatch(after); sm != nil {
			tag.Mistake = strings.TrimSpace(sm[1])
		}
		if sm := correctionPattern.FindStringSubmatch(after); sm != nil {
			tag.Correction = strings.TrimSpace(sm[1])
		}
		tags = append(tags, tag)
	}
	return tags
}

// LearningStore reads and writes the learnings file of a project.
type LearningStore struct {
	path string
}

func NewLearningStore(root string) *LearningStore {
	return &LearningStore{path: filepath.Join(root, LearningsFile)}
}

// Load returns every stored learning. A missing file yields none.
func (s *LearningStore) Load() ([]Learning, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read learnings: %w", err)
	}
	var learnings []Learning
	if err := json.Unmarshal(data, &learnings); err != nil {
		return nil, fmt.Errorf("parse learnings: %w", err)
	}
	return learnings, nil
}

// Capture merges tags into the store. A tag matching an existing category
// and rule (case-insensitively) bumps its times_applied; others are added.
// It returns the number of learnings added.
func (s *LearningStore) Capture(tags []LearnTag, project string, now time.Time) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return 0, fmt.Errorf("create learnings directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("open learnings: %w", err)
	}
	defer func() { _ = f.Close() }()

	unlock, err := util.LockFile(f)
	if err != nil {
		return 0, fmt.Errorf("lock learnings: %w", err)
	}
	defer unlock()

	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("read learnings: %w", err)
	}
	var learnings []Learning
	if json.Unmarshal(data, &learnings) != nil {
		learnings = nil
	}

	fold := cases.Fold()
	added := 0
	for _, tag := range tags {
		rule := fold.String(tag.Rule)
		category := fold.String(tag.Category)

		found := false
		for i := range learnings {
			l := &learnings[i]
			if fold.String(strings.TrimSpace(l.Rule)) == rule && fold.String(l.Category) == category {
				l.TimesApplied++
				found = true
				break
			}
		}
		if found {
			continue
		}

		learnings = append(learnings, Learning{
			Date:       now.Format(time.RFC3339),
			Project:    project,
			Category:   tag.Category,
			Rule:       tag.Rule,
			Mistake:    tag.Mistake,
			Correction: tag.Correction,
		})
		added++
	}

	out, err := json.MarshalIndent(learnings, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal learnings: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return 0, fmt.Errorf("truncate learnings: %w", err)
	}
	if _, err := f.WriteAt(out, 0); err != nil {
		return 0, fmt.Errorf("write learnings: %w", err)
	}
	return added, nil
}

// Top returns up to n learnings for project, most applied first and then
// most recent. When the project has none, all learnings are considered.
func (s *LearningStore) Top(project string, n int) ([]Learning, error) {
	all, err := s.Load()
	if err != nil {
		return nil, err
	}

	var selected []Learning
	for _, l := range all {
		if strings.EqualFold(l.Project, project) {
			selected = append(selected, l)
		}
	}
	if len(selected) == 0 {
		selected = all
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].TimesApplied != selected[j].TimesApplied {
			return selected[i].TimesApplied > selected[j].TimesApplied
		}
		return selected[i].Date > selected[j].Date
	})

	if len(selected) > n {
		selected = selected[:n]
	}
	return selected, nil
}

// FormatLearnings renders learnings as session context.
func FormatLearnings(learnings []Learning) string {
	if len(learnings) == 0 {
		return ""
	}

	lines := []string{fmt.Sprintf("[hookguard] %d learnings loaded for this project:", len(learnings))}
	for _, l := range learnings {
		category := l.Category
		if category == "" {
			category = "General"
		}
		line := fmt.Sprintf("  [%s] %s", category, l.Rule)
		if l.TimesApplied > 0 {
			line += fmt.Sprintf(" (applied %dx)", l.TimesApplied)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
