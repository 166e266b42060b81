package generation

import "github.com/stridecoach/stride/internal/models"

// Static fallback content, served when every provider is skipped, fails, or
// returns unparseable output. One table per kind, keyed by week, so a blocked
// provider never surfaces as an error to the user.

var fallbackGoals = map[int][]models.GoalSuggestion{
	1: {
		{
			Title:       "Write your purpose statement",
			Description: "Draft one paragraph describing why the next five weeks matter to you, and put it somewhere you will see daily.",
			Category:    models.CategoryPersonal,
			Reasoning:   "A written purpose statement anchors every later week of the program.",
			WeekNumber:  1,
		},
		{
			Title:       "Name your single most important change",
			Description: "Identify the one professional change that would make the biggest difference this quarter, and write down what is blocking it.",
			Category:    models.CategoryProfessional,
			Reasoning:   "Narrowing to one change prevents the program from becoming a scattered to-do list.",
			WeekNumber:  1,
		},
		{
			Title:       "Map where your energy goes",
			Description: "Track your activities for three days and mark which ones gave energy and which drained it.",
			Category:    models.CategoryLearning,
			Reasoning:   "Real data about your days beats assumptions when clarifying purpose.",
			WeekNumber:  1,
		},
	},
	2: {
		{
			Title:       "Protect one daily focus block",
			Description: "Reserve the same 45-minute block every workday for your most important work, and defend it for the whole week.",
			Category:    models.CategoryProfessional,
			Reasoning:   "A fixed daily block is the smallest rhythm that compounds.",
			WeekNumber:  2,
		},
		{
			Title:       "Build a shutdown ritual",
			Description: "End each workday with the same 10-minute routine: note what got done, pick tomorrow's first task, close everything.",
			Category:    models.CategoryProfessional,
			Reasoning:   "A consistent end-of-day ritual separates work from rest and makes mornings frictionless.",
			WeekNumber:  2,
		},
		{
			Title:       "Schedule real recovery",
			Description: "Put two deliberate recovery activities on the calendar this week, at fixed times, treated as unmovable.",
			Category:    models.CategoryPersonal,
			Reasoning:   "Sustainable rhythm needs planned rest, not leftover time.",
			WeekNumber:  2,
		},
	},
	3: {
		{
			Title:       "Reconnect with a mentor",
			Description: "Message one person whose judgment you trust, share what you are working on, and ask one specific question.",
			Category:    models.CategoryProfessional,
			Reasoning:   "A single concrete ask restarts a relationship better than a vague catch-up.",
			WeekNumber:  3,
		},
		{
			Title:       "Offer help before asking for it",
			Description: "Find one person in your network you can genuinely help this week and do it without being asked.",
			Category:    models.CategoryPersonal,
			Reasoning:   "Generosity is the most durable way to strengthen a network.",
			WeekNumber:  3,
		},
		{
			Title:       "Join one relevant conversation",
			Description: "Identify a community or group aligned with your purpose and participate once this week with a real contribution.",
			Category:    models.CategoryLearning,
			Reasoning:   "Missing relationships are usually found in rooms you are not yet in.",
			WeekNumber:  3,
		},
	},
	4: {
		{
			Title:       "Create a single inbox for commitments",
			Description: "Pick one place where every task, promise, and idea lands, and route everything there for a week.",
			Category:    models.CategoryProfessional,
			Reasoning:   "Scattered commitments are the biggest structural leak; one inbox closes it.",
			WeekNumber:  4,
		},
		{
			Title:       "Set one boundary on interruptions",
			Description: "Choose your worst interruption source and put one concrete rule around it, such as notifications off during focus blocks.",
			Category:    models.CategoryPersonal,
			Reasoning:   "A single enforced boundary beats a dozen intentions.",
			WeekNumber:  4,
		},
		{
			Title:       "Make your week visible",
			Description: "Put your weekly plan somewhere you physically see it each morning, and update it in under five minutes a day.",
			Category:    models.CategoryProfessional,
			Reasoning:   "Visible structure keeps the plan honest without relying on memory.",
			WeekNumber:  4,
		},
	},
	5: {
		{
			Title:       "Run a full weekly review",
			Description: "Block an hour, review the past four weeks, and write down which practices you are keeping.",
			Category:    models.CategoryProfessional,
			Reasoning:   "The weekly review is the method that maintains every other method.",
			WeekNumber:  5,
		},
		{
			Title:       "Write your personal playbook",
			Description: "Capture your keeper methods from the program as short written routines you can reread in a month.",
			Category:    models.CategoryLearning,
			Reasoning:   "Methods that are not written down fade within weeks of the program ending.",
			WeekNumber:  5,
		},
		{
			Title:       "Plan your first post-program week",
			Description: "Lay out next week's plan using only your own methods, with no program prompts to lean on.",
			Category:    models.CategoryPersonal,
			Reasoning:   "A rehearsal with the safety net still up is the best test of independence.",
			WeekNumber:  5,
		},
	},
}

var fallbackTasks = map[int][]models.TaskSuggestion{
	1: {
		{Title: "Draft a one-paragraph purpose statement", Description: "Write a rough first draft without editing; aim for honest over polished.", RecommendedSchedule: "first thing in the morning", EstimatedTime: "20 minutes", Reasoning: "A rough draft breaks the blank page and can be refined all week."},
		{Title: "List ten activities that gave you energy recently", Description: "Scan the last two weeks and write down what you looked forward to.", RecommendedSchedule: "during a quiet evening", EstimatedTime: "15 minutes", Reasoning: "Energy patterns point at purpose more reliably than abstract reflection."},
		{Title: "Write down the one change that matters most", Description: "Complete the sentence: if only one thing improved in three months, it should be...", RecommendedSchedule: "after the purpose draft", EstimatedTime: "10 minutes", Reasoning: "Forcing a single answer exposes real priorities."},
		{Title: "Read your draft aloud and mark what rings false", Description: "Strike anything you wrote because it sounded good rather than because it is true.", RecommendedSchedule: "end of the week", EstimatedTime: "15 minutes", Reasoning: "The false notes are where the statement needs another pass."},
	},
	2: {
		{Title: "Choose your daily focus block time", Description: "Pick a 45-minute slot that survives contact with your real calendar, and book it for the week.", RecommendedSchedule: "today", EstimatedTime: "10 minutes", Reasoning: "The block has to exist on the calendar before it can be defended."},
		{Title: "Attach the block to an existing habit", Description: "Anchor the focus block to something you already do daily, like the first coffee.", RecommendedSchedule: "tomorrow morning", EstimatedTime: "5 minutes", Reasoning: "Anchored routines survive; free-floating ones drift."},
		{Title: "Run the block once and log what broke it", Description: "Do one full block and write down every interruption that got through.", RecommendedSchedule: "during tomorrow's block", EstimatedTime: "45 minutes", Reasoning: "The first honest run shows which defenses the rhythm actually needs."},
		{Title: "Design your shutdown ritual", Description: "Write a three-step end-of-day checklist and tape it where you finish work.", RecommendedSchedule: "end of workday", EstimatedTime: "15 minutes", Reasoning: "Rhythm needs a defined end as much as a defined start."},
	},
	3: {
		{Title: "Pick the one person to reconnect with", Description: "Choose someone whose judgment you trust and who has seen your work.", RecommendedSchedule: "this morning", EstimatedTime: "10 minutes", Reasoning: "Naming the person converts intention into an addressable task."},
		{Title: "Draft the message with one specific question", Description: "Write the actual message including the single question you most want answered.", RecommendedSchedule: "right after choosing", EstimatedTime: "20 minutes", Reasoning: "A drafted message is one keypress from sent; an undrafted one is nothing."},
		{Title: "Send it and note the response", Description: "Send the message and record what comes back, including silence.", RecommendedSchedule: "before lunch", EstimatedTime: "5 minutes", Reasoning: "The week's theme is contact, not preparation for contact."},
		{Title: "Find one community worth joining", Description: "Identify one group aligned with your purpose and attend or post once.", RecommendedSchedule: "midweek", EstimatedTime: "30 minutes", Reasoning: "New relationships come from new rooms."},
	},
	4: {
		{Title: "Choose your single commitment inbox", Description: "Pick one tool or notebook; everything lands there from now on.", RecommendedSchedule: "today", EstimatedTime: "10 minutes", Reasoning: "The decision matters more than the tool."},
		{Title: "Sweep stray commitments into it", Description: "Collect promises from email, chat, and memory into the inbox in one pass.", RecommendedSchedule: "during a focus block", EstimatedTime: "30 minutes", Reasoning: "An inbox only earns trust once it holds everything."},
		{Title: "Write one interruption rule", Description: "Put a single concrete boundary in writing and tell the people it affects.", RecommendedSchedule: "after the sweep", EstimatedTime: "15 minutes", Reasoning: "Boundaries that nobody knows about do not hold."},
		{Title: "Post your weekly plan where you will see it", Description: "Write the week on one page and put it in your line of sight each morning.", RecommendedSchedule: "tomorrow morning", EstimatedTime: "15 minutes", Reasoning: "Visible structure is self-enforcing; hidden structure is optional."},
	},
	5: {
		{Title: "Block an hour for the weekly review", Description: "Put the review on the calendar as a recurring appointment, starting this week.", RecommendedSchedule: "Friday afternoon or Sunday evening", EstimatedTime: "10 minutes", Reasoning: "The review only happens if it owns a time slot."},
		{Title: "Run the review against the past four weeks", Description: "Go through each week's theme and write down what you are keeping and dropping.", RecommendedSchedule: "during the blocked hour", EstimatedTime: "60 minutes", Reasoning: "One real pass produces the raw material for your playbook."},
		{Title: "Write the playbook's first page", Description: "Document your top three methods as step-by-step routines in your own words.", RecommendedSchedule: "right after the review", EstimatedTime: "30 minutes", Reasoning: "Written methods survive; remembered methods do not."},
		{Title: "Plan next week without the program", Description: "Draft next week's plan using only your playbook, and note where it feels thin.", RecommendedSchedule: "end of the week", EstimatedTime: "20 minutes", Reasoning: "The gaps you find are the playbook's next edits."},
	},
}

var fallbackReflections = map[int]models.ReflectionAnalysis{
	1: {
		Insights:        []string{"You showed up and put your purpose into words, which most people never do.", "The gap between stated purpose and how the week was actually spent is normal at this stage."},
		Patterns:        []string{"Early reflections tend to focus on intentions rather than observed behavior."},
		Recommendations: []string{"Reread your purpose statement before planning each day next week.", "Note one moment per day when your time matched your purpose."},
		NextWeekFocus:   "Carry your purpose into week 2 by building a daily rhythm around the work that serves it.",
	},
	2: {
		Insights:        []string{"Whatever rhythm survived this week, however small, is a real foundation.", "Broken focus blocks reveal the interruptions that matter, which is useful data."},
		Patterns:        []string{"Routines anchored to existing habits tend to be the ones that held."},
		Recommendations: []string{"Keep the one routine that worked and drop the rest rather than fixing everything.", "Write down your worst recurring interruption for next week's structure work."},
		NextWeekFocus:   "Bring your rhythm into week 3 by involving the people who can support it.",
	},
	3: {
		Insights:        []string{"Reaching out at all is the hard part; the quality of the conversation matters less than that it happened.", "The people who gave you energy this week are signals about where your network should grow."},
		Patterns:        []string{"Avoided conversations usually point at the relationships with the most potential."},
		Recommendations: []string{"Follow up on any response you received, even briefly.", "Schedule the conversation you avoided before the momentum fades."},
		NextWeekFocus:   "Use week 4 to build the structure that keeps these connections alive without relying on memory.",
	},
	4: {
		Insights:        []string{"Each piece of friction you removed this week keeps paying off after the program ends.", "Where you still relied on willpower is exactly where the next system belongs."},
		Patterns:        []string{"Structural changes that alter the environment outlast ones that depend on discipline."},
		Recommendations: []string{"Keep the single change that saved the most attention and protect it.", "List the moments you relied on memory this week as candidates for systemization."},
		NextWeekFocus:   "Head into the final week by turning what worked into named methods you can keep.",
	},
	5: {
		Insights:        []string{"Finishing all five weeks is itself evidence the methods can hold without external pressure.", "The practices you chose to keep say more about your real working style than any assessment."},
		Patterns:        []string{"The methods that survived all five weeks are the ones aligned with how you already work."},
		Recommendations: []string{"Put your weekly review on the calendar as a standing appointment before the program habit fades.", "Revisit your written playbook in one month and edit what no longer rings true."},
		NextWeekFocus:   "The program is complete; run your own playbook, starting with next week's plan.",
	},
}

// FallbackGoals returns the static goal suggestions for a week. The returned
// slice is a copy; callers may modify it freely.
func FallbackGoals(week int) []models.GoalSuggestion {
	goals := fallbackGoals[week]
	out := make([]models.GoalSuggestion, len(goals))
	copy(out, goals)
	return out
}

// FallbackTasks returns the static task suggestions for a week as a copy.
func FallbackTasks(week int) []models.TaskSuggestion {
	tasks := fallbackTasks[week]
	out := make([]models.TaskSuggestion, len(tasks))
	copy(out, tasks)
	return out
}

// FallbackReflection returns the static reflection analysis for a week.
func FallbackReflection(week int) models.ReflectionAnalysis {
	return fallbackReflections[week]
}
