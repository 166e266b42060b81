package generation

import (
	"encoding/json"
	"testing"

	"github.com/stridecoach/stride/internal/models"
)

var sampleGoals = []models.GoalSuggestion{
	{Title: "Protect a focus block", Description: "45 minutes daily", Category: models.CategoryProfessional, Reasoning: "cadence compounds"},
	{Title: "Schedule recovery", Description: "two fixed slots", Category: models.CategoryPersonal, Reasoning: "rest is planned"},
}

func TestParseGoalsRoundTrip(t *testing.T) {
	raw, err := json.Marshal(sampleGoals)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	cases := []struct {
		name string
		text string
	}{
		{"bare array", string(raw)},
		{"markdown fences", "```json\n" + string(raw) + "\n```"},
		{"wrapper object", `{"goals": ` + string(raw) + `}`},
		{"wrapper in fences", "Here you go:\n```json\n" + `{"goals": ` + string(raw) + "}\n```"},
		{"surrounding prose", "Sure! Here are your goals:\n" + string(raw) + "\nLet me know if you want more."},
		{"bracketed prose before wrapper", `[note] {"goals": ` + string(raw) + `}`},
		{"bracketed prose before array", "As discussed [see week plan], here they are:\n" + string(raw)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			goals, err := ParseGoals(c.text)
			if err != nil {
				t.Fatalf("ParseGoals: %v", err)
			}
			if len(goals) != len(sampleGoals) {
				t.Fatalf("got %d goals, want %d", len(goals), len(sampleGoals))
			}
			for i := range goals {
				if goals[i].Title != sampleGoals[i].Title || goals[i].Category != sampleGoals[i].Category {
					t.Errorf("goal %d = %+v, want %+v", i, goals[i], sampleGoals[i])
				}
			}
		})
	}
}

func TestParseGoalsFailures(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"prose without JSON", "I could not produce any goals this time, sorry."},
		{"truncated array", `[{"title": "Protect a focus block", "description": "45 min`},
		{"empty array", `[]`},
		{"array of non-objects", `[1, 2, 3]`},
		{"missing titles", `[{"description": "no title here"}]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseGoals(c.text); err == nil {
				t.Errorf("ParseGoals(%q) should fail", c.text)
			}
		})
	}
}

func TestParseGoalsCoercesUnknownCategory(t *testing.T) {
	goals, err := ParseGoals(`[{"title": "Learn piano", "category": "creative"}]`)
	if err != nil {
		t.Fatalf("ParseGoals: %v", err)
	}
	if goals[0].Category != models.CategoryPersonal {
		t.Errorf("category = %q, want coerced to %q", goals[0].Category, models.CategoryPersonal)
	}
}

func TestParseTasks(t *testing.T) {
	text := `{"tasks": [{"title": "Draft the message", "description": "include one question", "recommendedSchedule": "this morning", "estimatedTime": "20 minutes", "reasoning": "drafted is nearly sent"}]}`
	tasks, err := ParseTasks(text)
	if err != nil {
		t.Fatalf("ParseTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Draft the message" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if tasks[0].EstimatedTime != "20 minutes" {
		t.Errorf("estimatedTime = %q", tasks[0].EstimatedTime)
	}

	if _, err := ParseTasks(`{"tasks": []}`); err == nil {
		t.Error("empty task list should fail")
	}
	if _, err := ParseTasks("no json here"); err == nil {
		t.Error("prose should fail")
	}
}

func TestParseReflection(t *testing.T) {
	text := "Here is my analysis:\n```json\n" +
		`{"insights": ["you kept the streak"], "patterns": ["mornings work"], "recommendations": ["protect mornings"], "nextWeekFocus": "bring rhythm into week 3"}` +
		"\n```\nHope that helps."
	analysis, err := ParseReflection(text)
	if err != nil {
		t.Fatalf("ParseReflection: %v", err)
	}
	if len(analysis.Insights) != 1 || analysis.NextWeekFocus == "" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestParseReflectionSkipsBracketedProse(t *testing.T) {
	text := `{disclaimer} {"insights": ["you kept the streak"], "nextWeekFocus": "rhythm"}`
	analysis, err := ParseReflection(text)
	if err != nil {
		t.Fatalf("ParseReflection: %v", err)
	}
	if len(analysis.Insights) != 1 || analysis.NextWeekFocus != "rhythm" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestParseReflectionFailures(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"prose only", "that was a great week"},
		{"truncated object", `{"insights": ["almost`},
		{"empty analysis", `{"insights": [], "nextWeekFocus": ""}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseReflection(c.text); err == nil {
				t.Errorf("ParseReflection(%q) should fail", c.text)
			}
		})
	}
}

func TestExtractBalancedStringAware(t *testing.T) {
	// A bracket inside a JSON string must not close the array.
	text := `[{"title": "use [brackets] wisely"}]`
	goals, err := ParseGoals(text)
	if err != nil {
		t.Fatalf("ParseGoals: %v", err)
	}
	if goals[0].Title != "use [brackets] wisely" {
		t.Errorf("title = %q", goals[0].Title)
	}
}
