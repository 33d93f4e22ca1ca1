package pipeline

import "fmt"

// RoleSpec carries everything role-specific as plain data: persona
// instructions, permitted search queries, upstream dependencies and the
// advisory structure markers the output is expected to contain. One generic
// Worker processes every spec.
type RoleSpec struct {
	Role         Role
	SectionTitle string
	Instructions string
	// QueryTemplates are fmt templates over the topic; a role with none has
	// no tool access.
	QueryTemplates []string
	DependsOn      []Role
	// Markers are substrings the output should contain. Their absence is
	// logged, never treated as failure: the generation backend cannot be
	// forced to obey formatting exactly.
	Markers []string
}

// ToolsPermitted reports whether the role may issue search calls.
func (s RoleSpec) ToolsPermitted() bool { return len(s.QueryTemplates) > 0 }

// Queries expands the role's query templates for a topic.
func (s RoleSpec) Queries(topic string) []string {
	out := make([]string, 0, len(s.QueryTemplates))
	for _, tmpl := range s.QueryTemplates {
		out = append(out, fmt.Sprintf(tmpl, topic))
	}
	return out
}

var analystSegments = []string{
	"Rural Society", "Urban Society", "Working Class", "Backward Class",
	"Farmers", "Manufacturing", "Services", "Women", "Youth", "Tribals",
}

// RoleSpecs is the closed set of pipeline roles keyed by role name.
var RoleSpecs = map[Role]RoleSpec{
	RoleAnalyst: {
		Role:         RoleAnalyst,
		SectionTitle: "Analysis",
		Instructions: `You are a Senior Data-Driven Policy Analyst.
MANDATE: Be extremely concise. Use bullet points.
Ground every claim in the search findings provided below.

Analyze the topic and structure your response strictly under:
1. Rural Society 2. Urban Society 3. Working Class 4. Backward Class
5. Farmers 6. Manufacturing 7. Services 8. Women 9. Youth 10. Tribals.

For each section, cite 1 specific data point with a persuasive argument.`,
		QueryTemplates: []string{
			"%s statistics and economic data",
			"%s impact studies evidence",
		},
		Markers: analystSegments,
	},
	RoleCritic: {
		Role:         RoleCritic,
		SectionTitle: "Critique",
		Instructions: `You are a Critical Policy Reviewer.
MANDATE: Be direct and ruthless. No polite padding.
Use the search findings provided below as counter-evidence.

Critique the topic by highlighting:
- Economic feasibility (cite costs).
- Failed examples from other countries.
- Direct negative impact on specific groups, in a single paragraph.`,
		QueryTemplates: []string{
			"%s criticism costs failures",
		},
		Markers: []string{"feasibility"},
	},
	RoleLobbyist: {
		Role:         RoleLobbyist,
		SectionTitle: "Future Directives",
		Instructions: `You are a Future Policy Strategist & Lobbyist.

Your Goal: Based on the Analysis and Critique, propose 3 concrete Future
Policy Directives. For each directive you must LOBBY for a specific section
of society (e.g., "Lobbying for Farmers").

Structure each directive as:
1. **Directive Name**
2. **Target Beneficiary** (e.g., Rural Women, Gig Workers)
3. **The Pitch**: a persuasive argument using data from the search findings
   to justify why this directive is urgent.

MANDATE: Be persuasive but factual.`,
		QueryTemplates: []string{
			"%s policy proposals recent data",
		},
		DependsOn: []Role{RoleAnalyst, RoleCritic},
		Markers:   []string{"Directive Name", "Target Beneficiary", "The Pitch"},
	},
	RoleSynthesizer: {
		Role:         RoleSynthesizer,
		SectionTitle: "Final Summary",
		Instructions: `You are a Policy Synthesizer.

MANDATE: Create a "TL;DR" Executive Summary based on the Analysis, Critique
and Lobbyist proposals. Maximum 400 words.

Format:
1. **The Verdict**: one sentence summary.
2. **Key Data Points** (top 3 facts from the agents).
3. **Major Risks** (from the Critique).
4. **Future Roadmap** (top 2 directives from the Lobbyist).
5. **Final Recommendation**: Pass, Reject, or Amend, with why (one sentence).`,
		DependsOn: []Role{RoleAnalyst, RoleCritic, RoleLobbyist},
		Markers:   []string{"The Verdict", "Final Recommendation"},
	},
}
