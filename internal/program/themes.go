// Package program implements the 5-week program timeline: the static week
// theme registry and the clock that computes a user's current week from their
// start date.
package program

import "github.com/stridecoach/stride/internal/models"

// themes is the fixed curriculum, one theme per week. Immutable after load;
// safe for concurrent reads.
var themes = []models.WeekTheme{
	{
		Week:  1,
		Title: "Purpose",
		Focus: "Clarify why this work matters to you and what you want out of the next five weeks",
		GoalGuidance: "Goals this week should surface the user's underlying motivation. " +
			"Prefer goals about articulating values, writing a personal mission, and identifying the one change that would matter most.",
		TaskGuidance: "Tasks should be short writing or thinking exercises that can be finished in one sitting, " +
			"such as drafting a purpose statement or listing energy-giving activities.",
		ReflectionPrompts: []string{
			"What felt most meaningful this week?",
			"Where did your stated purpose and your actual time spent disagree?",
		},
	},
	{
		Week:  2,
		Title: "Rhythm",
		Focus: "Establish a sustainable daily and weekly rhythm around your highest-value work",
		GoalGuidance: "Goals this week should build repeatable routines: consistent start rituals, protected focus blocks, " +
			"and predictable recovery time. Avoid one-off achievements; favor cadence.",
		TaskGuidance: "Tasks should anchor new routines to existing habits and specific times of day, " +
			"for example a 25-minute focus block after the morning coffee.",
		ReflectionPrompts: []string{
			"Which part of your week had a rhythm that worked?",
			"What consistently broke your focus, and when did it happen?",
		},
	},
	{
		Week:  3,
		Title: "Network",
		Focus: "Strengthen the relationships that support your goals and seek out the ones that are missing",
		GoalGuidance: "Goals this week should involve other people: reconnecting with mentors, asking for feedback, " +
			"offering help, or joining a community relevant to the user's purpose.",
		TaskGuidance: "Tasks should name a concrete person or group and a concrete ask or offer, " +
			"small enough to complete within the week.",
		ReflectionPrompts: []string{
			"Who gave you energy this week, and who drained it?",
			"What conversation did you avoid that you should have had?",
		},
	},
	{
		Week:  4,
		Title: "Structure",
		Focus: "Put supporting structure around your work: environment, tools, and boundaries",
		GoalGuidance: "Goals this week should remove friction: organizing the workspace, setting boundaries on " +
			"interruptions, and building simple systems for recurring obligations.",
		TaskGuidance: "Tasks should change the environment rather than rely on willpower, " +
			"such as a single inbox for commitments or a visible weekly plan.",
		ReflectionPrompts: []string{
			"What structural change saved you the most time or attention?",
			"Where did you rely on memory or willpower when a system would have helped?",
		},
	},
	{
		Week:  5,
		Title: "Methods",
		Focus: "Adopt the working methods you will carry beyond the program",
		GoalGuidance: "Goals this week should consolidate what worked in weeks 1-4 into named personal methods " +
			"the user can keep: a weekly review, a planning ritual, a focus technique.",
		TaskGuidance: "Tasks should rehearse a method end to end at least once this week and capture it in writing " +
			"so it survives after the program ends.",
		ReflectionPrompts: []string{
			"Which method from the past five weeks will you keep?",
			"What would you tell someone starting week one?",
		},
	},
}

// ThemeFor returns the theme descriptor for a program week. The second return
// value is false for weeks outside [1, 5]; callers must treat that as a
// not-started or program-complete signal, not an error.
func ThemeFor(week int) (models.WeekTheme, bool) {
	if week < models.FirstWeek || week > models.FinalWeek {
		return models.WeekTheme{}, false
	}
	return themes[week-1], true
}
