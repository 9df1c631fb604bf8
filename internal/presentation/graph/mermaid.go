package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowrun/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromRun marks the nodes a run visited and the node it stopped on.
func OverlayFromRun(res *domain.RunResult) *GraphOverlay {
	nodes := res.Nodes()
	overlay := &GraphOverlay{VisitedNodes: nodes}
	if len(nodes) > 0 {
		overlay.CurrentNode = nodes[len(nodes)-1]
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart for the graph.
// Shapes:
// - Start node: ((Circle))
// - Other nodes: [Rectangle] labelled with their step type
// Conditional edges carry a `key == value` label. Edge endpoints that are not
// declared nodes are drawn with the "missing" class.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.NodeIDs() {
		node := g.Nodes[id]
		opener, closer := "[", "]"
		if id == g.StartNode {
			opener, closer = "((", "))"
		}
		label := escapeLabel(id)
		if node.StepType != "" && node.StepType != id {
			label = fmt.Sprintf("%s <br/> %s", label, escapeLabel(node.StepType))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(id), opener, label, closer)
	}

	missing := make(map[string]bool)
	for _, e := range g.Edges {
		for _, end := range []string{e.From, e.To} {
			if _, ok := g.Nodes[end]; !ok {
				missing[end] = true
			}
		}

		arrow := "-->"
		if e.Conditional() {
			cond := escapeLabel(fmt.Sprintf("%s == %s", e.ConditionKey, e.ConditionValue))
			arrow = fmt.Sprintf("-- \"%s\" -->", cond)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if g.StartNode != "" {
		if _, ok := g.Nodes[g.StartNode]; !ok {
			missing[g.StartNode] = true
		}
	}
	if len(missing) > 0 {
		sb.WriteString("\n    classDef missing stroke:#c62828,stroke-dasharray:5 5;\n")
		for _, id := range sortedKeys(missing) {
			fmt.Fprintf(&sb, "    class %s missing;\n", sanitizeMermaidID(id))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// escapeLabel replaces double quotes, which terminate Mermaid labels.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
