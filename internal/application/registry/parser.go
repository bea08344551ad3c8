package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowgraph-io/flowgraph/internal/application/executor"
	"github.com/flowgraph-io/flowgraph/internal/domain"
)

// definitionSchema constrains graph-definition documents before they
// are decoded. Dependency strings use the canonical modifier syntax
// (optional(b), vararg(v), sideffect(t), ...).
const definitionSchema = `{
	"type": "object",
	"required": ["name", "operations"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"merge": {"type": "boolean"},
		"outputs": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"operations": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "fn", "provides"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"fn": {"type": "string", "minLength": 1},
					"needs": {"type": "array", "items": {"type": "string", "minLength": 1}},
					"provides": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
					"endured": {"type": "boolean"},
					"reschedule": {"type": "boolean"},
					"node_props": {"type": "object"}
				},
				"additionalProperties": false
			}
		}
	},
	"additionalProperties": false
}`

// Definition is a declarative network: operations whose functions are
// resolved by name from a Registry.
type Definition struct {
	Name       string   `json:"name"`
	Merge      bool     `json:"merge,omitempty"`
	Outputs    []string `json:"outputs,omitempty"`
	Operations []OpDef  `json:"operations"`
}

// OpDef is one operation of a Definition.
type OpDef struct {
	Name       string         `json:"name"`
	Fn         string         `json:"fn"`
	Needs      []string       `json:"needs,omitempty"`
	Provides   []string       `json:"provides"`
	Endured    bool           `json:"endured,omitempty"`
	Reschedule bool           `json:"reschedule,omitempty"`
	NodeProps  map[string]any `json:"node_props,omitempty"`
}

// Parser turns JSON graph definitions into networks, validating them
// against the definition schema first.
type Parser struct {
	registry *Registry
	schema   *gojsonschema.Schema
}

// NewParser creates a parser resolving functions from the registry.
func NewParser(registry *Registry) (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definitionSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile definition schema: %w", err)
	}
	return &Parser{registry: registry, schema: schema}, nil
}

// Parse validates and decodes a JSON definition, then assembles the
// network it describes.
func (p *Parser) Parse(jsonData []byte) (*executor.Network, error) {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to validate graph definition: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("invalid graph definition: %s", strings.Join(details, "; "))
	}

	var def Definition
	if err := unmarshalStrict(jsonData, &def); err != nil {
		return nil, fmt.Errorf("failed to decode graph definition: %w", err)
	}
	return p.Build(&def)
}

// Build assembles a network from an already-decoded definition.
func (p *Parser) Build(def *Definition) (*executor.Network, error) {
	members := make([]any, 0, len(def.Operations))
	for _, opDef := range def.Operations {
		op, err := p.buildOp(opDef)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", opDef.Name, err)
		}
		members = append(members, op)
	}

	var opts []executor.ComposeOption
	if def.Merge {
		opts = append(opts, executor.WithMerge())
	}
	if len(def.Outputs) > 0 {
		opts = append(opts, executor.WithOutputs(def.Outputs...))
	}
	return executor.Compose(def.Name, members, opts...)
}

func (p *Parser) buildOp(def OpDef) (*domain.Operation, error) {
	fn, ok := p.registry.Get(def.Fn)
	if !ok {
		return nil, fmt.Errorf("unknown function %q (registered: %s)",
			def.Fn, strings.Join(p.registry.Names(), ", "))
	}
	needs, err := domain.ParseDeps(def.Needs)
	if err != nil {
		return nil, err
	}
	provides, err := domain.ParseDeps(def.Provides)
	if err != nil {
		return nil, err
	}

	var opts []domain.OpOption
	if def.Endured {
		opts = append(opts, domain.Endured())
	}
	if def.Reschedule {
		opts = append(opts, domain.Rescheduled())
	}
	if len(def.NodeProps) > 0 {
		opts = append(opts, domain.WithNodeProps(def.NodeProps))
	}
	return domain.NewOperation(def.Name, fn, needs, provides, opts...)
}
