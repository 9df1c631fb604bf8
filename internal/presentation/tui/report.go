package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/flowrun/pkg/domain"
)

// RunReport renders a run as markdown: a summary table, the changes made by
// each step (relative to initial for the first one), and the final state.
func RunReport(res *domain.RunResult, initial domain.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Run `%s`\n\n", res.RunID)
	sb.WriteString("| Graph | Steps | Terminated by |\n")
	sb.WriteString("|---|---|---|\n")
	fmt.Fprintf(&sb, "| %s | %d | %s |\n\n", res.GraphID, res.Steps, res.TerminatedBy)

	sb.WriteString("## Steps\n\n")
	for i, d := range domain.StepDiffs(initial, res.Log) {
		fmt.Fprintf(&sb, "%d. **%s**", i+1, res.Log[i].Node)
		if d.IsEmpty() {
			sb.WriteString(" (no changes)\n")
			continue
		}
		sb.WriteString("\n")
		for _, k := range sortedValueKeys(d.Added) {
			fmt.Fprintf(&sb, "   - `+ %s` = `%s`\n", k, truncate(d.Added[k].String()))
		}
		for _, k := range sortedValueKeys(d.Changed) {
			fmt.Fprintf(&sb, "   - `~ %s` = `%s`\n", k, truncate(d.Changed[k].String()))
		}
		for _, k := range d.Removed {
			fmt.Fprintf(&sb, "   - `- %s`\n", k)
		}
	}

	sb.WriteString("\n## Final state\n\n```json\n")
	data, err := json.MarshalIndent(res.FinalState, "", "  ")
	if err != nil {
		data = []byte(err.Error())
	}
	sb.Write(data)
	sb.WriteString("\n```\n")
	return sb.String()
}

const maxValueWidth = 60

func truncate(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	r := []rune(s)
	if len(r) <= maxValueWidth {
		return s
	}
	return string(r[:maxValueWidth-3]) + "..."
}

func sortedValueKeys(m map[string]domain.Value) []string {
	return domain.State(m).Keys()
}
