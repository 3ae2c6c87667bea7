package orchestrator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// TasksDelimiter separates a role's free-text report from its JSON task
// array inside one response. The scheduler splits on the first occurrence.
const TasksDelimiter = "---TASKS_JSON---"

// directiveExcerpt bounds how much of a superior's report flows into a
// subordinate's prompt.
const directiveExcerpt = 1200

// peerExcerpt bounds how much of each peer report flows into a prompt.
const peerExcerpt = 600

// buildSystemPrompt assembles one role's system prompt: its own
// instructions, its specialty data, the superior's directive, the reports
// of peers that already ran this round, and the fixed output contract.
func buildSystemPrompt(role models.Role, data ProjectData, superior *peerReport, peers []peerReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s %s, part of a marketing team working on this project.\n\n", role.Emoji, role.Title)
	if role.Instructions != "" {
		b.WriteString(role.Instructions)
		b.WriteString("\n\n")
	}

	excerpt := data.ExcerptFor(ClassifyTitle(role.Title))
	if excerpt != "" {
		b.WriteString("## Project data for your specialty\n")
		b.WriteString(excerpt)
		b.WriteString("\n\n")
	}

	if superior != nil {
		fmt.Fprintf(&b, "## Directive from %s\n%s\n\n", superior.title, truncate(superior.text, directiveExcerpt))
	}

	if len(peers) > 0 {
		b.WriteString("## What your teammates reported so far\n")
		for _, p := range peers {
			fmt.Fprintf(&b, "### %s\n%s\n\n", p.title, truncate(p.text, peerExcerpt))
		}
	}

	b.WriteString("## Output format\n")
	b.WriteString("Write your report as free text. Then, on its own line, write exactly:\n")
	b.WriteString(TasksDelimiter)
	b.WriteString("\nfollowed by a JSON array of tasks, each with ")
	b.WriteString(`"title", "description", "category", "priority", "dueDate", "successMetric" and "estimatedImpact".`)

	return b.String()
}

// peerReport pairs a role's title with its already-produced report text.
type peerReport struct {
	roleID string
	title  string
	text   string
}

// truncate cuts s to at most n bytes on a rune boundary so excerpts
// never carry a split multi-byte sequence into a prompt.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
