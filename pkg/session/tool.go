package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/atlasvoice/atlas/pkg/live/protocol"
)

// ToolReportCandidate is the one function the model may call. Any other tool
// name in a tool-call event is ignored.
const ToolReportCandidate = "reportAutomationCandidate"

// TimeSavedUnknown is recorded when the model omits estimatedTimeSaved.
const TimeSavedUnknown = "未知"

// toolResultOK is the acknowledgment payload sent back for each handled call.
var toolResultOK = map[string]any{"result": "Success: Candidate logged in dashboard."}

// ReportCandidateDeclaration is the wire declaration for the reporting tool.
func ReportCandidateDeclaration() protocol.FunctionDeclaration {
	return protocol.FunctionDeclaration{
		Name:        ToolReportCandidate,
		Description: "当以 95% 的置信度识别出一个明确的自动化候选任务时调用此函数。",
		Parameters: &protocol.Schema{
			Type: protocol.TypeObject,
			Properties: map[string]*protocol.Schema{
				"title":       {Type: protocol.TypeString, Description: "自动化的简短、面向行动的标题（中文）。"},
				"description": {Type: protocol.TypeString, Description: "痛点的一句话总结（中文）。"},
				"frequency":   {Type: protocol.TypeString, Description: "此任务执行的频率（例如：每天、每周）。"},
				"estimatedTimeSaved": {
					Type:        protocol.TypeString,
					Description: "估计节省的时间（例如：2小时/周）。",
				},
				"complexity": {
					Type:        protocol.TypeString,
					Enum:        []string{string(ComplexityLow), string(ComplexityMedium), string(ComplexityHigh)},
					Description: "实施复杂度 (Low=低, Medium=中, High=高)。",
				},
				"steps": {
					Type:        protocol.TypeArray,
					Items:       &protocol.Schema{Type: protocol.TypeString},
					Description: "工作流的逐步逻辑（中文）。",
				},
			},
			Required: []string{"title", "description", "frequency", "steps"},
		},
	}
}

type candidateArgs struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Frequency          string   `json:"frequency"`
	EstimatedTimeSaved string   `json:"estimatedTimeSaved"`
	Complexity         string   `json:"complexity"`
	Steps              []string `json:"steps"`
}

// parseCandidate builds an AutomationCandidate from tool-call arguments,
// applying the documented fallbacks for optional fields.
func parseCandidate(args json.RawMessage) (AutomationCandidate, error) {
	var parsed candidateArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return AutomationCandidate{}, fmt.Errorf("parse candidate args: %w", err)
		}
	}

	candidate := AutomationCandidate{
		ID:                 uuid.NewString(),
		Title:              parsed.Title,
		Description:        parsed.Description,
		Frequency:          parsed.Frequency,
		EstimatedTimeSaved: parsed.EstimatedTimeSaved,
		Steps:              parsed.Steps,
	}
	if candidate.EstimatedTimeSaved == "" {
		candidate.EstimatedTimeSaved = TimeSavedUnknown
	}
	switch Complexity(parsed.Complexity) {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		candidate.Complexity = Complexity(parsed.Complexity)
	default:
		candidate.Complexity = ComplexityMedium
	}
	if candidate.Steps == nil {
		candidate.Steps = []string{}
	}
	return candidate, nil
}
