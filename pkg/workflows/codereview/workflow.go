// Package codereview ships the built-in "code review" workflow: a chain of
// heuristic steps over a "code" string that loops back to issue detection until
// the quality score reaches the threshold or the step budget runs out.
package codereview

import (
	"context"
	"fmt"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/dsl"
	"github.com/aretw0/flowrun/pkg/registry"
)

// GraphID is the id the workflow is registered under.
const GraphID = "code_review"

// MaxSteps bounds the review loop.
const MaxSteps = 20

// Host is what Install needs from an engine.
type Host interface {
	Register(name string, handler registry.Handler)
	RegisterGraph(ctx context.Context, graph *domain.Graph) error
}

// Handlers returns the workflow's step handlers keyed by step type.
func Handlers() map[string]registry.Handler {
	return map[string]registry.Handler{
		StepExtractFunctions:    registry.Pure(ExtractFunctions),
		StepCheckComplexity:     registry.Pure(CheckComplexity),
		StepDetectIssues:        registry.Pure(DetectIssues),
		StepSuggestImprovements: registry.Pure(SuggestImprovements),
		StepEvaluateQuality:     registry.Pure(EvaluateQuality),
	}
}

// RegisterSteps installs the handlers into r.
func RegisterSteps(r interface {
	Register(string, registry.Handler)
}) {
	for name, h := range Handlers() {
		r.Register(name, h)
	}
}

// Graph returns the workflow definition. Each node is named after its step type.
func Graph() *domain.Graph {
	b := dsl.New(GraphID).Start(StepExtractFunctions).MaxSteps(MaxSteps)
	b.Add(StepExtractFunctions).Step(StepExtractFunctions).Go(StepCheckComplexity)
	b.Add(StepCheckComplexity).Step(StepCheckComplexity).Go(StepDetectIssues)
	b.Add(StepDetectIssues).Step(StepDetectIssues).Go(StepSuggestImprovements)
	b.Add(StepSuggestImprovements).Step(StepSuggestImprovements).Go(StepEvaluateQuality)
	// No edge for done == true: the run ends there.
	b.Add(StepEvaluateQuality).Step(StepEvaluateQuality).When("done", false, StepDetectIssues)
	return b.MustBuild()
}

// Install registers the handlers and the graph on the host.
func Install(ctx context.Context, host Host) error {
	RegisterSteps(host)
	if err := host.RegisterGraph(ctx, Graph()); err != nil {
		return fmt.Errorf("failed to install %s workflow: %w", GraphID, err)
	}
	return nil
}
