package models

// StrategicPlan is the weekly strategy synthesized once per orchestrator
// run from the root role's output plus all collected reports. It is
// best-effort: a run may complete without one.
type StrategicPlan struct {
	// WeekTheme is the overarching theme for the week.
	WeekTheme string `json:"weekTheme"`
	// TopGoals lists the highest-priority goals.
	TopGoals []string `json:"topGoals"`
	// DailyFocus maps weekday name to that day's focus line.
	DailyFocus map[string]string `json:"dailyFocus,omitempty"`
	// KPIsToWatch lists the metrics to track this week.
	KPIsToWatch []string `json:"kpisToWatch,omitempty"`
	// RiskAlert flags the most important risk, if any.
	RiskAlert string `json:"riskAlert,omitempty"`
	// QuickWins lists low-effort, high-impact actions.
	QuickWins []string `json:"quickWins,omitempty"`
}

// DayPlan is one business day of the synthesized daily plan.
type DayPlan struct {
	// Date is the day in YYYY-MM-DD form.
	Date string `json:"date"`
	// Theme is the day's focus.
	Theme string `json:"theme"`
	// KPITargets lists the metric targets for the day.
	KPITargets []string `json:"kpiTargets,omitempty"`
	// Actions is the day's timed action list.
	Actions []DayAction `json:"actions"`
}

// DayAction is one timed entry in a day plan.
type DayAction struct {
	// Time is the suggested time of day (e.g. "09:00").
	Time string `json:"time,omitempty"`
	// Task describes the action.
	Task string `json:"task"`
	// Priority is the action's urgency.
	Priority string `json:"priority,omitempty"`
}
