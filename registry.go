package flowgraph

import (
	"github.com/flowgraph-io/flowgraph/internal/application/registry"
)

// Registry resolves function names referenced by graph definitions.
type Registry = registry.Registry

// Parser turns JSON graph definitions into networks.
type Parser = registry.Parser

// Definition is a declarative network document.
type Definition = registry.Definition

// OpDef is one operation of a Definition.
type OpDef = registry.OpDef

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry { return registry.NewRegistry() }

// NewParser creates a definition parser resolving functions from r.
func NewParser(r *Registry) (*Parser, error) { return registry.NewParser(r) }
