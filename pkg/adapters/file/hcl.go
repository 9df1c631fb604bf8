package file

import (
	"fmt"

	"github.com/aretw0/flowrun/internal/dto"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclGraph struct {
	ID          string            `hcl:"id"`
	StartNode   string            `hcl:"start_node,optional"`
	MaxSteps    *int              `hcl:"max_steps,optional"`
	StateSchema map[string]string `hcl:"state_schema,optional"`
	Nodes       []hclNode         `hcl:"node,block"`
	Edges       []hclEdge         `hcl:"edge,block"`
}

type hclNode struct {
	ID       string `hcl:"id,label"`
	StepType string `hcl:"step_type,optional"`
	Tool     string `hcl:"tool,optional"`
}

type hclEdge struct {
	From           string    `hcl:"from"`
	To             string    `hcl:"to"`
	ConditionKey   string    `hcl:"condition_key,optional"`
	ConditionValue cty.Value `hcl:"condition_value,optional"`
}

// DecodeHCL parses a graph written in HCL:
//
//	id         = "review"
//	start_node = "a"
//	node "a" { step_type = "extract_functions" }
//	edge {
//	  from = "a"
//	  to   = "b"
//	  condition_key   = "done"
//	  condition_value = false
//	}
func DecodeHCL(data []byte, filename string) (*domain.Graph, error) {
	f, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var hg hclGraph
	if diags := gohcl.DecodeBody(f.Body, nil, &hg); diags.HasErrors() {
		return nil, diags
	}

	def := dto.GraphDefinition{
		ID:          hg.ID,
		StartNode:   hg.StartNode,
		Nodes:       make(map[string]dto.NodeDefinition, len(hg.Nodes)),
		Edges:       make([]dto.EdgeDefinition, 0, len(hg.Edges)),
		MaxSteps:    hg.MaxSteps,
		StateSchema: hg.StateSchema,
	}
	for _, n := range hg.Nodes {
		if _, dup := def.Nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %q", n.ID)
		}
		def.Nodes[n.ID] = dto.NodeDefinition{ID: n.ID, StepType: n.StepType, Tool: n.Tool}
	}
	for i, e := range hg.Edges {
		edge := dto.EdgeDefinition{FromNode: e.From, ToNode: e.To, ConditionKey: e.ConditionKey}
		if e.ConditionKey != "" {
			v, err := ctyToValue(e.ConditionValue)
			if err != nil {
				return nil, fmt.Errorf("edge %d: condition_value: %w", i, err)
			}
			edge.ConditionValue = v
		}
		def.Edges = append(def.Edges, edge)
	}
	return def.ToDomain()
}

// ctyToValue converts a fully known cty value.
func ctyToValue(v cty.Value) (domain.Value, error) {
	if v.IsNull() {
		return domain.Null(), nil
	}
	if !v.IsWhollyKnown() {
		return domain.Null(), fmt.Errorf("value is not known")
	}

	t := v.Type()
	switch {
	case t == cty.Bool:
		return domain.Bool(v.True()), nil
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return domain.Number(f), nil
	case t == cty.String:
		return domain.String(v.AsString()), nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		var items []domain.Value
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			item, err := ctyToValue(ev)
			if err != nil {
				return domain.Null(), err
			}
			items = append(items, item)
		}
		return domain.List(items...), nil
	case t.IsMapType() || t.IsObjectType():
		entries := map[string]domain.Value{}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			item, err := ctyToValue(ev)
			if err != nil {
				return domain.Null(), err
			}
			entries[k.AsString()] = item
		}
		return domain.Map(entries), nil
	default:
		return domain.Null(), fmt.Errorf("unsupported type %s", t.FriendlyName())
	}
}
