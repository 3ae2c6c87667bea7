package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rankpilot/rankpilot/internal/hierarchy"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// refinementSeparator joins a role's original report with the refinement
// produced during the peer-review pass.
const refinementSeparator = "\n\n--- Refinement ---\n\n"

// minRefineGroup and defaultRefineGroupMax bound peer critique groups.
// A lone role has nobody to review it; groups above the cap are skipped
// outright to bound completion-call fan-out, regardless of how many
// members actually reported.
const (
	minRefineGroup        = 2
	defaultRefineGroupMax = 3
)

// Refiner runs the peer-review pass over a completed round. Every member
// of an eligible peer group that produced a report gets its own parallel
// completion call, built from its report and the other members' reports;
// the refinement is appended to that member's report only. The pass is
// strictly best-effort: any failure leaves the original reports intact.
type Refiner struct {
	completer llm.Completer
	groupMax  int
	debugLog  func(format string, args ...interface{})
}

// NewRefiner creates a refiner. groupMax values below minRefineGroup
// fall back to the default.
func NewRefiner(completer llm.Completer, groupMax int) *Refiner {
	if groupMax < minRefineGroup {
		groupMax = defaultRefineGroupMax
	}
	return &Refiner{
		completer: completer,
		groupMax:  groupMax,
		debugLog:  func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (r *Refiner) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		r.debugLog = fn
	}
}

// refineJob is one member's refinement request, built from the round's
// original reports before any refinement lands.
type refineJob struct {
	role   models.Role
	prompt string
}

// Refine runs the per-member refinement calls in parallel and appends
// each returned refinement to that member's result and report in place.
func (r *Refiner) Refine(ctx context.Context, resolver *hierarchy.Resolver, result *RoundResult) {
	var jobs []refineJob
	for _, group := range resolver.PeerGroups() {
		// Eligibility is keyed on total group size, not on how many
		// members reported: a large group stays skipped even when
		// failures shrink the reporting subset.
		if len(group) < minRefineGroup || len(group) > r.groupMax {
			continue
		}
		reported := membersWithReports(group, result)
		if len(reported) < minRefineGroup {
			continue
		}
		for _, member := range reported {
			jobs = append(jobs, refineJob{
				role:   member,
				prompt: r.buildRefinePrompt(member, reported, result),
			})
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, job := range jobs {
		wg.Add(1)
		go func(job refineJob) {
			defer wg.Done()

			system := fmt.Sprintf("You are %s. Refine your own report given your peers' work. Be concise and specific.", job.role.Title)
			refined, err := r.completer.Complete(ctx, system, job.prompt)
			if err != nil {
				r.debugLog("[refine] %s refinement failed: %v", job.role.ID, err)
				return
			}
			refined = strings.TrimSpace(refined)
			if refined == "" {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			text := result.reports[job.role.ID] + refinementSeparator + refined
			result.reports[job.role.ID] = text
			for i := range result.Results {
				if result.Results[i].RoleID == job.role.ID {
					result.Results[i].Text = text
				}
			}
		}(job)
	}

	wg.Wait()
}

// membersWithReports filters a peer group down to roles that produced a
// report this round.
func membersWithReports(group []models.Role, result *RoundResult) []models.Role {
	var members []models.Role
	for _, role := range group {
		if _, ok := result.reports[role.ID]; ok {
			members = append(members, role)
		}
	}
	return members
}

// buildRefinePrompt assembles one member's refinement request: its own
// report in full, the other members' reports truncated.
func (r *Refiner) buildRefinePrompt(member models.Role, reported []models.Role, result *RoundResult) string {
	var b strings.Builder
	b.WriteString("## Your report\n")
	b.WriteString(result.reports[member.ID])
	b.WriteString("\n\n## Peer reports\n")
	for _, peer := range reported {
		if peer.ID == member.ID {
			continue
		}
		b.WriteString(fmt.Sprintf("\n### %s\n%s\n", peer.Title, truncate(result.reports[peer.ID], peerExcerpt)))
	}
	b.WriteString("\nReply with a short refinement of your report: corrections, overlaps with peers to drop, and gaps to cover. Do not restate the report.")
	return b.String()
}
