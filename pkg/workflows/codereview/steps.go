package codereview

import (
	"math"
	"strings"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Step type names.
const (
	StepExtractFunctions    = "extract_functions"
	StepCheckComplexity     = "check_complexity"
	StepDetectIssues        = "detect_issues"
	StepSuggestImprovements = "suggest_improvements"
	StepEvaluateQuality     = "evaluate_quality"
)

const (
	// HighComplexityLines is the line count above which code is rated "high" complexity.
	HighComplexityLines = 30
	// DefaultQualityThreshold applies when the state has no numeric quality_threshold.
	DefaultQualityThreshold = 0.7
)

// Suggestions emitted by SuggestImprovements.
const (
	SuggestSplit = "Consider splitting large functions into smaller ones."
	SuggestTODO  = "Resolve TODO comments before merging."
	SuggestClean = "Code looks clean. No major improvements needed."
)

// ExtractFunctions lists the lines that start a function definition ("def ").
// Writes functions and num_functions.
func ExtractFunctions(s domain.State) domain.State {
	var functions []string
	for _, line := range codeLines(s) {
		if strings.HasPrefix(strings.TrimSpace(line), "def ") {
			functions = append(functions, line)
		}
	}
	s["functions"] = domain.Strings(functions)
	s["num_functions"] = domain.Int(len(functions))
	return s
}

// CheckComplexity rates the code by its line count.
// Writes num_lines and complexity ("high" or "low").
func CheckComplexity(s domain.State) domain.State {
	n := len(codeLines(s))
	s["num_lines"] = domain.Int(n)
	if n > HighComplexityLines {
		s["complexity"] = domain.String("high")
	} else {
		s["complexity"] = domain.String("low")
	}
	return s
}

// DetectIssues treats every line containing TODO as an issue.
// Writes issues and issue_count.
func DetectIssues(s domain.State) domain.State {
	var issues []string
	for _, line := range codeLines(s) {
		if strings.Contains(line, "TODO") {
			issues = append(issues, line)
		}
	}
	s["issues"] = domain.Strings(issues)
	s["issue_count"] = domain.Int(len(issues))
	return s
}

// SuggestImprovements turns complexity and issue_count into suggestions.
func SuggestImprovements(s domain.State) domain.State {
	var suggestions []string
	if c, _ := s.String("complexity"); c == "high" {
		suggestions = append(suggestions, SuggestSplit)
	}
	if n, _ := s.Number("issue_count"); n > 0 {
		suggestions = append(suggestions, SuggestTODO)
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, SuggestClean)
	}
	s["suggestions"] = domain.Strings(suggestions)
	return s
}

// EvaluateQuality scores the code in [0, 1] and sets done when the score
// reaches quality_threshold. High complexity costs 0.3 and each issue 0.1, capped at 0.5.
func EvaluateQuality(s domain.State) domain.State {
	score := 1.0
	if c, _ := s.String("complexity"); c == "high" {
		score -= 0.3
	}
	if n, _ := s.Number("issue_count"); n > 0 {
		score -= math.Min(0.5, 0.1*n)
	}
	score = math.Max(0, math.Min(1, score))

	threshold, ok := s.Number("quality_threshold")
	if !ok {
		threshold = DefaultQualityThreshold
	}

	s["quality_score"] = domain.Number(score)
	s["done"] = domain.Bool(score >= threshold)
	return s
}

// codeLines splits the "code" key into lines. A trailing newline does not add an empty line.
func codeLines(s domain.State) []string {
	code, _ := s.String("code")
	if code == "" {
		return nil
	}
	code = strings.ReplaceAll(code, "\r\n", "\n")
	lines := strings.Split(code, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
