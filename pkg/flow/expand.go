package flow

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// resolver looks variables up in explicit vars, then the flow's env
// block, then the process environment.
type resolver struct {
	vars      map[string]string
	env       map[string]string
	lookupEnv func(string) (string, bool)
}

func newResolver(o parseOptions, env map[string]string) *resolver {
	return &resolver{vars: o.vars, env: env, lookupEnv: o.lookupEnv}
}

func (r *resolver) lookup(name string) (string, bool) {
	if v, ok := r.vars[name]; ok {
		return v, true
	}
	if v, ok := r.env[name]; ok {
		return v, true
	}
	if r.lookupEnv != nil {
		return r.lookupEnv(name)
	}
	return "", false
}

// expand replaces every ${NAME} in s.
func (r *resolver) expand(s string) (string, error) {
	var missing string
	out := varPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		v, ok := r.lookup(name)
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("undefined variable ${%s}", missing)
	}
	return out, nil
}

// expandNode expands scalar values (never keys) of a YAML tree in place.
func (r *resolver) expandNode(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := r.expand(node.Value)
		if err != nil {
			return err
		}
		if v != node.Value {
			node.Value = v
			if node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
				// re-resolve so "${N}" can decode into an int field
				node.Tag = ""
			}
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			if err := r.expandNode(node.Content[i]); err != nil {
				return err
			}
		}
	case yaml.SequenceNode, yaml.DocumentNode:
		for _, child := range node.Content {
			if err := r.expandNode(child); err != nil {
				return err
			}
		}
	}
	return nil
}
