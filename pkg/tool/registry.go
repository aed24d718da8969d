package tool

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/osbeck/labops/pkg/fault"
)

// Registry holds the tool set in registration order, which is also the
// order tools/list advertises.
type Registry struct {
	order   []string
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool, len(tools)),
		schemas: make(map[string]*gojsonschema.Schema, len(tools)),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Validate compiles every declared schema so a malformed one fails at
// startup instead of on the first call.
func (r *Registry) Validate() error {
	for _, name := range r.order {
		if _, err := r.schema(name); err != nil {
			return fmt.Errorf("tool %s: %w", name, err)
		}
	}
	return nil
}

// ValidateArgs checks call arguments against the tool's schema and
// renders every violation into a single validation fault.
func (r *Registry) ValidateArgs(name string, args map[string]interface{}) error {
	schema, err := r.schema(name)
	if err != nil {
		return err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fault.Internal("validate arguments for %s: %v", name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			msgs = append(msgs, violation.String())
		}
		return fault.Validation("invalid arguments for %s: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}

func (r *Registry) schema(name string) (*gojsonschema.Schema, error) {
	if schema, ok := r.schemas[name]; ok {
		return schema, nil
	}
	t, ok := r.tools[name]
	if !ok {
		return nil, fault.NotFound("unknown tool: %s", name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema()))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	r.schemas[name] = schema
	return schema, nil
}
