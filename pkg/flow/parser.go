package flow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quokka-io/mobile-harness/pkg/core"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Is lets parse errors match core.ErrInvalidArgument.
func (e *ParseError) Is(target error) bool {
	return target == error(core.ErrInvalidArgument)
}

type parseOptions struct {
	vars      map[string]string
	lookupEnv func(string) (string, bool)
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

// WithVars adds variables that take precedence over the flow's env block
// and the process environment.
func WithVars(vars map[string]string) ParseOption {
	return func(o *parseOptions) {
		for k, v := range vars {
			o.vars[k] = v
		}
	}
}

// WithLookupEnv replaces os.LookupEnv as the last variable source.
func WithLookupEnv(fn func(string) (string, bool)) ParseOption {
	return func(o *parseOptions) { o.lookupEnv = fn }
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string, opts ...ParseOption) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path, opts...)
}

// Parse parses flow YAML content: an optional config document, "---",
// then the step list. ${VAR} references in step values are expanded
// from WithVars, the config's env block and the environment, in that
// order; an undefined variable is a parse error.
func Parse(data []byte, sourcePath string, opts ...ParseOption) (*Flow, error) {
	o := parseOptions{vars: map[string]string{}, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	steps := parts[0]
	if len(parts) > 1 {
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		steps = parts[1]
	}

	vars := newResolver(o, flow.Config.Env)
	appID, err := vars.expand(flow.Config.AppID)
	if err != nil {
		return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("appId: %v", err)}
	}
	flow.Config.AppID = appID
	if err := parseSteps(steps, flow, vars); err != nil {
		return nil, err
	}

	return flow, nil
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		s := strings.TrimSpace(current.String())
		if s != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow, vars *resolver) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for i := range rawSteps {
		node := &rawSteps[i]
		if err := vars.expandNode(node); err != nil {
			return &ParseError{Path: flow.SourcePath, Line: node.Line, Message: err.Error()}
		}
		step, err := parseStep(node, flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Handle scalar nodes like "- hideKeyboard" (no colon, no params)
	if node.Kind == yaml.ScalarNode {
		stepType := node.Value
		if !isStepType(stepType) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", stepType),
			}
		}
		emptyNode := &yaml.Node{Kind: yaml.MappingNode, Line: node.Line}
		return decodeStep(StepType(stepType), emptyNode, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "unknown step type",
		}
	}

	step, err := decodeStep(StepType(stepType), valueNode, sourcePath)
	if err != nil {
		return nil, err
	}
	// "- tapOn: X" followed by a sibling "optional: true" key
	if optional := siblingBool(node, "optional"); optional {
		setOptional(step)
	}
	return step, nil
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func siblingBool(node *yaml.Node, key string) bool {
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			var b bool
			if err := node.Content[i+1].Decode(&b); err == nil {
				return b
			}
		}
	}
	return false
}

func setOptional(step Step) {
	if o, ok := step.(interface{ setOptional() }); ok {
		o.setOptional()
	}
}

func (b *BaseStep) setOptional() { b.Optional = true }

func isStepType(key string) bool {
	switch StepType(key) {
	case StepLaunchApp, StepStopApp, StepWait, StepWaitForNonzeroSize, StepWaitForURL,
		StepTapOn, StepTapOnPoint, StepInputText, StepSwipe, StepScroll, StepScrollTo,
		StepHideKeyboard, StepBack, StepTakeScreenshot:
		return true
	}
	return false
}

// decodeSelectorStep decodes steps whose scalar form is a selector.
func decodeSelectorStep(valueNode *yaml.Node, sel *Selector, out interface{}, sourcePath string) error {
	if valueNode.Kind == yaml.ScalarNode {
		*sel = SelectorFromString(valueNode.Value)
	} else if err := valueNode.Decode(out); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	if _, err := sel.Locator(); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	return nil
}

//nolint:gocyclo
func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	switch stepType {
	case StepLaunchApp:
		var s LaunchAppStep
		if valueNode.Kind == yaml.ScalarNode {
			s.AppID = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	case StepStopApp:
		var s StopAppStep
		if valueNode.Kind == yaml.ScalarNode {
			s.AppID = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	case StepWait:
		var s WaitStep
		if err := decodeSelectorStep(valueNode, &s.Selector, &s, sourcePath); err != nil {
			return nil, err
		}
		if err := checkProfile(s.Profile, sourcePath, valueNode.Line); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepWaitForNonzeroSize:
		var s WaitForNonzeroSizeStep
		if err := decodeSelectorStep(valueNode, &s.Selector, &s, sourcePath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepWaitForURL:
		var s WaitForURLStep
		if err := decodeSelectorStep(valueNode, &s.Selector, &s, sourcePath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepTapOn:
		var s TapOnStep
		if err := decodeSelectorStep(valueNode, &s.Selector, &s, sourcePath); err != nil {
			return nil, err
		}
		if err := checkProfile(s.Profile, sourcePath, valueNode.Line); err != nil {
			return nil, err
		}
		if s.Point != "" {
			if _, _, err := ParsePercentPoint(s.Point); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepTapOnPoint:
		var s TapOnPointStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Point = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		if s.Point != "" {
			if _, _, err := ParsePercentPoint(s.Point); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepInputText:
		var s InputTextStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Text = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		if _, err := s.Selector.Locator(); err != nil {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    valueNode.Line,
				Message: "inputText needs the field to type into: " + err.Error(),
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepSwipe:
		var s SwipeStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		if err := checkSwipe(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	case StepScroll:
		var s ScrollStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Direction = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		if err := checkDirection(s.Direction, sourcePath, valueNode.Line); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepScrollTo:
		var s ScrollToStep
		if err := decodeSelectorStep(valueNode, &s.Selector, &s, sourcePath); err != nil {
			return nil, err
		}
		if err := checkDirection(s.Direction, sourcePath, valueNode.Line); err != nil {
			return nil, err
		}
		if s.MaxScrolls < 0 {
			return nil, &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "maxScrolls must not be negative"}
		}
		s.StepType = stepType
		return &s, nil

	case StepHideKeyboard:
		var s HideKeyboardStep
		if valueNode.Kind == yaml.MappingNode {
			if err := valueNode.Decode(&s); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepBack:
		var s BackStep
		if valueNode.Kind == yaml.MappingNode {
			if err := valueNode.Decode(&s); err != nil {
				return nil, wrapParseError(sourcePath, valueNode.Line, err)
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepTakeScreenshot:
		var s TakeScreenshotStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Path = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		return &s, nil

	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}
}

func checkProfile(profile, sourcePath string, line int) error {
	switch strings.ToLower(profile) {
	case "", "short", "default", "long":
		return nil
	}
	return &ParseError{Path: sourcePath, Line: line, Message: fmt.Sprintf("unknown wait profile %q", profile)}
}

func checkDirection(direction, sourcePath string, line int) error {
	if direction == "" {
		return nil
	}
	if _, err := core.ParseScrollDirection(direction); err != nil {
		return wrapParseError(sourcePath, line, err)
	}
	return nil
}

func checkSwipe(s *SwipeStep) error {
	if s.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	if s.Element != nil {
		if _, err := s.Element.Locator(); err != nil {
			return err
		}
		if !s.IsRelative() {
			return fmt.Errorf("swipe in an element needs start and end percentages")
		}
	}
	if !s.IsRelative() {
		return nil
	}
	if s.Start == "" || s.End == "" {
		return fmt.Errorf("swipe needs both start and end")
	}
	for _, p := range []string{s.Start, s.End} {
		if _, _, err := ParsePercentPoint(p); err != nil {
			return err
		}
	}
	return nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}
