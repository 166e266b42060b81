// Package generation implements the AI content generation pipeline: prompt
// building, the provider fallback chain, response parsing, and the router
// that ties them together behind a single entry point.
package generation

import (
	"fmt"
	"strings"

	"github.com/stridecoach/stride/internal/models"
)

// Generation sizes stated in every prompt and enforced by the templates.
const (
	// GoalsPerWeek is the number of goal suggestions requested per generation.
	GoalsPerWeek = 3
	// TasksPerGoal is the number of task suggestions requested per goal.
	TasksPerGoal = 4
)

// PromptContext carries the user context embedded into a rendered prompt.
// Only the fields relevant to the requested kind need to be set.
type PromptContext struct {
	Theme     models.WeekTheme
	NextTheme *models.WeekTheme // reflection only; nil means program complete

	// Goal generation context.
	Purpose       string
	ExistingGoals []string

	// Task generation context.
	GoalTitle       string
	GoalDescription string

	// Reflection analysis context.
	Wins      string
	Lessons   string
	NextSteps string
}

// System prompts, one per generation kind.
const (
	goalSystemPrompt = "You are a personal productivity coach guiding a user through a fixed 5-week program. " +
		"You suggest weekly goals matched to the current week's theme and the user's stated purpose. " +
		"You respond with JSON only."

	taskSystemPrompt = "You are a personal productivity coach who breaks a weekly goal down into small, concrete tasks. " +
		"Every task must be directly actionable without further planning. You respond with JSON only."

	reflectionSystemPrompt = "You are a personal productivity coach analyzing a user's weekly reflection. " +
		"You identify insights and patterns grounded in what the user actually wrote, never invented. " +
		"You respond with JSON only."
)

// Output schema blocks appended to every prompt of the matching kind.
var goalSchemaBlock = fmt.Sprintf(`Respond with JSON only, in exactly this shape:
{"goals": [{"title": "...", "description": "...", "category": "personal|professional|health|learning", "reasoning": "..."}]}
Return exactly %d goals. Do not write anything outside the JSON.`, GoalsPerWeek)

var taskSchemaBlock = fmt.Sprintf(`Respond with JSON only, in exactly this shape:
{"tasks": [{"title": "...", "description": "...", "recommendedSchedule": "...", "estimatedTime": "...", "reasoning": "..."}]}
Return exactly %d tasks. "recommendedSchedule" is a free-text time-of-day hint and "estimatedTime" a free-text duration hint. Do not write anything outside the JSON.`, TasksPerGoal)

const reflectionSchemaBlock = `Respond with JSON only, in exactly this shape:
{"insights": ["..."], "patterns": ["..."], "recommendations": ["..."], "nextWeekFocus": "..."}
Each list holds 2-4 short strings. Do not write anything outside the JSON.`

type templateFunc func(PromptContext) string

type promptKey struct {
	week int
	kind models.GenerationKind
}

// promptTemplates maps (week, kind) to the template that renders it. One
// template per goal/task week; reflection shares a single template across
// all weeks, parameterized by the current and next theme.
var promptTemplates = map[promptKey]templateFunc{
	{1, models.KindGoals}: week1GoalsPrompt,
	{2, models.KindGoals}: week2GoalsPrompt,
	{3, models.KindGoals}: week3GoalsPrompt,
	{4, models.KindGoals}: week4GoalsPrompt,
	{5, models.KindGoals}: week5GoalsPrompt,

	{1, models.KindTasks}: week1TasksPrompt,
	{2, models.KindTasks}: week2TasksPrompt,
	{3, models.KindTasks}: week3TasksPrompt,
	{4, models.KindTasks}: week4TasksPrompt,
	{5, models.KindTasks}: week5TasksPrompt,

	{1, models.KindReflection}: reflectionPrompt,
	{2, models.KindReflection}: reflectionPrompt,
	{3, models.KindReflection}: reflectionPrompt,
	{4, models.KindReflection}: reflectionPrompt,
	{5, models.KindReflection}: reflectionPrompt,
}

// SystemPromptFor returns the per-kind system prompt.
func SystemPromptFor(kind models.GenerationKind) string {
	switch kind {
	case models.KindGoals:
		return goalSystemPrompt
	case models.KindTasks:
		return taskSystemPrompt
	case models.KindReflection:
		return reflectionSystemPrompt
	default:
		return ""
	}
}

// BuildPrompt renders the user prompt for a (kind, week) pair. It never fails
// for well-formed context; ok is false only when no template exists for the
// pair, which callers guard against by validating the week upstream.
func BuildPrompt(kind models.GenerationKind, week int, pc PromptContext) (string, bool) {
	tmpl, ok := promptTemplates[promptKey{week: week, kind: kind}]
	if !ok {
		return "", false
	}
	return tmpl(pc), true
}

// goalHeader renders the shared opening of every goal prompt: the week's
// theme, the concrete task, and the user context.
func goalHeader(pc PromptContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is week %d of the user's 5-week program. The theme is %q: %s.\n\n",
		pc.Theme.Week, pc.Theme.Title, pc.Theme.Focus)
	fmt.Fprintf(&b, "Generate %d goal suggestions for this week.\n\n", GoalsPerWeek)
	if pc.Purpose != "" {
		fmt.Fprintf(&b, "The user's stated purpose: %q\n", pc.Purpose)
	}
	if len(pc.ExistingGoals) > 0 {
		b.WriteString("Goals the user already has (do not duplicate these):\n")
		for _, g := range pc.ExistingGoals {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	b.WriteString("\n")
	return b.String()
}

func week1GoalsPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(goalHeader(pc))
	b.WriteString(pc.Theme.GoalGuidance)
	b.WriteString("\n\nAvoid: productivity jargon, goals that require tools the user has not mentioned, ")
	b.WriteString("and anything that reads like a corporate mission statement. ")
	b.WriteString("Avoid goals that could belong to any week; each must clearly serve clarifying purpose.\n\n")
	b.WriteString(goalSchemaBlock)
	return b.String()
}

func week2GoalsPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(goalHeader(pc))
	b.WriteString(pc.Theme.GoalGuidance)
	b.WriteString("\n\nAvoid: one-off achievements dressed up as routines, schedules that assume a free calendar, ")
	b.WriteString("and more than one new routine per goal. Avoid vague frequencies like \"regularly\"; ")
	b.WriteString("name a cadence the user could mark on a calendar.\n\n")
	b.WriteString(goalSchemaBlock)
	return b.String()
}

func week3GoalsPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(goalHeader(pc))
	b.WriteString(pc.Theme.GoalGuidance)
	b.WriteString("\n\nAvoid: generic networking advice, goals that only consume content instead of contacting people, ")
	b.WriteString("and anything requiring the user to perform for an audience. Each goal must involve at least one ")
	b.WriteString("real interaction with a specific kind of person.\n\n")
	b.WriteString(goalSchemaBlock)
	return b.String()
}

func week4GoalsPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(goalHeader(pc))
	b.WriteString(pc.Theme.GoalGuidance)
	b.WriteString("\n\nAvoid: buying new tools as a goal, reorganizing for its own sake, and systems with more than ")
	b.WriteString("three moving parts. Prefer removing friction over adding process.\n\n")
	b.WriteString(goalSchemaBlock)
	return b.String()
}

func week5GoalsPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(goalHeader(pc))
	b.WriteString(pc.Theme.GoalGuidance)
	b.WriteString("\n\nAvoid: introducing brand-new practices in the final week, goals about the program itself, ")
	b.WriteString("and methods the user never tried in weeks 1-4. Every goal should turn something that already ")
	b.WriteString("worked into a keeper.\n\n")
	b.WriteString(goalSchemaBlock)
	return b.String()
}

// taskHeader renders the shared opening of every task prompt.
func taskHeader(pc PromptContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is week %d of the user's 5-week program. The theme is %q: %s.\n\n",
		pc.Theme.Week, pc.Theme.Title, pc.Theme.Focus)
	fmt.Fprintf(&b, "Break the following goal into %d concrete tasks.\n\n", TasksPerGoal)
	fmt.Fprintf(&b, "Goal: %s\n", pc.GoalTitle)
	if pc.GoalDescription != "" {
		fmt.Fprintf(&b, "Details: %s\n", pc.GoalDescription)
	}
	if pc.Purpose != "" {
		fmt.Fprintf(&b, "The user's stated purpose: %q\n", pc.Purpose)
	}
	b.WriteString("\n")
	return b.String()
}

func week1TasksPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(taskHeader(pc))
	b.WriteString(pc.Theme.TaskGuidance)
	b.WriteString("\n\nAvoid: tasks longer than one sitting, tasks that depend on other people this week, ")
	b.WriteString("and reflection questions disguised as tasks. Each task must end with something written down.\n\n")
	b.WriteString(taskSchemaBlock)
	return b.String()
}

func week2TasksPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(taskHeader(pc))
	b.WriteString(pc.Theme.TaskGuidance)
	b.WriteString("\n\nAvoid: floating tasks with no anchor time, plans that span the whole week, and any task ")
	b.WriteString("that cannot fail visibly (if the user cannot tell whether they did it, rewrite it).\n\n")
	b.WriteString(taskSchemaBlock)
	return b.String()
}

func week3TasksPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(taskHeader(pc))
	b.WriteString(pc.Theme.TaskGuidance)
	b.WriteString("\n\nAvoid: \"reach out to someone\" without naming who, messages that ask for nothing specific, ")
	b.WriteString("and tasks the user can complete without leaving their own notes. Drafting the actual message ")
	b.WriteString("counts; thinking about it does not.\n\n")
	b.WriteString(taskSchemaBlock)
	return b.String()
}

func week4TasksPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(taskHeader(pc))
	b.WriteString(pc.Theme.TaskGuidance)
	b.WriteString("\n\nAvoid: multi-hour reorganization sessions, migrating between tools, and setup tasks whose ")
	b.WriteString("benefit only appears weeks later. Each task should make tomorrow measurably easier.\n\n")
	b.WriteString(taskSchemaBlock)
	return b.String()
}

func week5TasksPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(taskHeader(pc))
	b.WriteString(pc.Theme.TaskGuidance)
	b.WriteString("\n\nAvoid: tasks that only document without rehearsing, and rehearsals with no written outcome. ")
	b.WriteString("Each method must be run once for real and captured in a form the user can reread in a month.\n\n")
	b.WriteString(taskSchemaBlock)
	return b.String()
}

// reflectionPrompt is shared across all five weeks, parameterized by the
// current theme and the next week's theme (or program completion).
func reflectionPrompt(pc PromptContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user just finished week %d (%q: %s) of their 5-week program and submitted a reflection.\n\n",
		pc.Theme.Week, pc.Theme.Title, pc.Theme.Focus)

	fmt.Fprintf(&b, "Wins: %s\n", orNone(pc.Wins))
	fmt.Fprintf(&b, "Lessons: %s\n", orNone(pc.Lessons))
	fmt.Fprintf(&b, "Next steps: %s\n\n", orNone(pc.NextSteps))

	if len(pc.Theme.ReflectionPrompts) > 0 {
		b.WriteString("Reflection prompts the user was given this week:\n")
		for _, p := range pc.Theme.ReflectionPrompts {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if pc.NextTheme != nil {
		fmt.Fprintf(&b, "Next week's theme is %q: %s. The nextWeekFocus must bridge from this reflection into that theme.\n\n",
			pc.NextTheme.Title, pc.NextTheme.Focus)
	} else {
		b.WriteString("This was the final week of the program. The nextWeekFocus should describe how to carry the program's methods forward independently.\n\n")
	}

	b.WriteString("Analyze the reflection. Avoid: praise without substance, insights not grounded in the user's own words, ")
	b.WriteString("and recommendations that ignore what the user said they would do next.\n\n")
	b.WriteString(reflectionSchemaBlock)
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(nothing written)"
	}
	return s
}
