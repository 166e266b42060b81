package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stridecoach/stride/internal/models"
)

// ErrUnparseable indicates a provider response contained no usable JSON
// payload for the requested kind. It is recovered by the fallback chain and
// never reaches callers of the router.
var ErrUnparseable = errors.New("response contains no parseable payload")

// Wrapper keys providers sometimes use instead of a bare array.
const (
	goalsWrapperKey = "goals"
	tasksWrapperKey = "tasks"
)

// ParseGoals extracts goal suggestions from raw provider text. It accepts a
// bare JSON array or a {"goals": [...]} object, optionally wrapped in prose
// or markdown fences. Unrecognized categories are coerced to "personal"
// rather than rejected.
func ParseGoals(raw string) ([]models.GoalSuggestion, error) {
	payload, err := extractList(raw, goalsWrapperKey)
	if err != nil {
		return nil, err
	}
	var goals []models.GoalSuggestion
	if err := json.Unmarshal(payload, &goals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: empty goal list", ErrUnparseable)
	}
	for i := range goals {
		if strings.TrimSpace(goals[i].Title) == "" {
			return nil, fmt.Errorf("%w: goal %d has no title", ErrUnparseable, i)
		}
		goals[i].Category = models.NormalizeGoalCategory(goals[i].Category)
	}
	return goals, nil
}

// ParseTasks extracts task suggestions from raw provider text, accepting a
// bare JSON array or a {"tasks": [...]} object.
func ParseTasks(raw string) ([]models.TaskSuggestion, error) {
	payload, err := extractList(raw, tasksWrapperKey)
	if err != nil {
		return nil, err
	}
	var tasks []models.TaskSuggestion
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty task list", ErrUnparseable)
	}
	for i, task := range tasks {
		if strings.TrimSpace(task.Title) == "" {
			return nil, fmt.Errorf("%w: task %d has no title", ErrUnparseable, i)
		}
	}
	return tasks, nil
}

// ParseReflection extracts a reflection analysis object from raw provider
// text. The result must carry at least one insight or a next-week focus to
// count as parseable.
func ParseReflection(raw string) (models.ReflectionAnalysis, error) {
	var analysis models.ReflectionAnalysis

	cleaned := stripCodeFences(raw)
	block := firstJSONBlock(cleaned, '{', '}')
	if block == "" {
		return analysis, fmt.Errorf("%w: no JSON object found", ErrUnparseable)
	}
	if err := json.Unmarshal([]byte(block), &analysis); err != nil {
		return models.ReflectionAnalysis{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(analysis.Insights) == 0 && analysis.NextWeekFocus == "" {
		return models.ReflectionAnalysis{}, fmt.Errorf("%w: analysis has neither insights nor a next-week focus", ErrUnparseable)
	}
	return analysis, nil
}

// extractList locates the first well-formed JSON array in raw, unwrapping a
// known wrapper object ({"goals": [...]}) when one appears first. Brackets in
// surrounding prose (citations, markdown links) are skipped: a candidate that
// fails to deserialize does not stop the scan.
func extractList(raw string, wrapperKey string) (json.RawMessage, error) {
	cleaned := stripCodeFences(raw)

	for i := 0; i < len(cleaned); i++ {
		switch cleaned[i] {
		case '[':
			block := extractBalanced(cleaned[i:], '[', ']')
			if block != "" && json.Valid([]byte(block)) {
				return json.RawMessage(block), nil
			}
		case '{':
			block := extractBalanced(cleaned[i:], '{', '}')
			if block == "" {
				continue
			}
			var wrapper map[string]json.RawMessage
			if err := json.Unmarshal([]byte(block), &wrapper); err != nil {
				continue
			}
			if inner, ok := wrapper[wrapperKey]; ok {
				return inner, nil
			}
			// A valid object without the wrapper key; keep scanning, which
			// also descends into its values.
		}
	}
	return nil, fmt.Errorf("%w: no JSON array found", ErrUnparseable)
}

// firstJSONBlock returns the first balanced open...close block in s that is
// also valid JSON, skipping bracketed prose earlier in the text.
func firstJSONBlock(s string, open, close byte) string {
	for i := 0; i < len(s); i++ {
		if s[i] != open {
			continue
		}
		block := extractBalanced(s[i:], open, close)
		if block != "" && json.Valid([]byte(block)) {
			return block
		}
	}
	return ""
}

// stripCodeFences removes markdown code fences (```json ... ``` or ``` ... ```).
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractBalanced finds the first balanced open...close block in s, string-
// and escape-aware. Returns "" when no opener exists or the block is
// truncated.
func extractBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
