package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DepKind discriminates how a dependency name participates in scheduling
// and in function invocation.
type DepKind string

const (
	// DepRequired is the default kind: the name must be present in the
	// inputs or produced upstream, and is passed positionally.
	DepRequired DepKind = "required"
	// DepOptional names are consumed only if present and passed by keyword.
	DepOptional DepKind = "optional"
	// DepMapped names are required but passed by keyword under a
	// different function-argument name.
	DepMapped DepKind = "mapped"
	// DepVararg names are optional; when present the value is appended
	// positionally to the function's variadic tail.
	DepVararg DepKind = "vararg"
	// DepVarargs names are optional; the value must be a non-string
	// iterable whose elements are appended positionally.
	DepVarargs DepKind = "varargs"
	// DepSideffect names participate in scheduling only; they gate
	// execution as needs and are recorded in the solution as provides,
	// but never touch the function.
	DepSideffect DepKind = "sideffect"
	// DepSideffected binds a real data name to side-effect tokens that
	// are also consumed/produced alongside it.
	DepSideffected DepKind = "sideffected"
)

// Dep is a dependency name annotated with a modifier. A modified name is
// still a name, but it is a distinct graph node from a bare name of the
// same text: Sideffect("x") never matches data "x". Deps carry no
// behaviour of their own; the compiler and the executor consult them.
type Dep struct {
	// Name is the data name, or the token for side-effects.
	Name string
	// Kind selects the modifier semantics.
	Kind DepKind
	// FnKey is the keyword under which optional/mapped values are passed
	// to the function. Empty means Name.
	FnKey string
	// Tokens are the side-effect tokens of a sideffected dependency.
	Tokens []string
}

var sideffectRe = regexp.MustCompile(`^sideffect\((.*)\)$`)

// Required returns an unmodified dependency on name.
func Required(name string) Dep { return Dep{Name: name, Kind: DepRequired} }

// Optional annotates name as an optional keyword dependency.
func Optional(name string) Dep { return Dep{Name: name, Kind: DepOptional} }

// OptionalAs annotates name as optional, passed to the function under
// fnKey instead of its input key.
func OptionalAs(name, fnKey string) Dep {
	return Dep{Name: name, Kind: DepOptional, FnKey: fnKey}
}

// Mapped annotates name as a required dependency passed by keyword under
// fnKey.
func Mapped(name, fnKey string) Dep {
	return Dep{Name: name, Kind: DepMapped, FnKey: fnKey}
}

// Vararg annotates name as an optional positional dependency appended to
// the function's variadic tail when present.
func Vararg(name string) Dep { return Dep{Name: name, Kind: DepVararg} }

// Varargs annotates name as an optional dependency whose iterable value
// is flattened into the function's variadic tail.
func Varargs(name string) Dep { return Dep{Name: name, Kind: DepVarargs} }

// Sideffect returns a pseudo-dependency on token. Re-wrapping is
// idempotent: Sideffect("sideffect(x)") equals Sideffect("x").
func Sideffect(token string) Dep {
	if m := sideffectRe.FindStringSubmatch(token); m != nil {
		token = m[1]
	}
	return Dep{Name: token, Kind: DepSideffect}
}

// Sideffected binds the real data name to one or more side-effect tokens
// that are consumed/produced together with it.
func Sideffected(real string, tokens ...string) Dep {
	return Dep{Name: real, Kind: DepSideffected, Tokens: tokens}
}

// Key returns the graph-node key of the dependency. Side-effects key on
// their canonical string so they never collide with same-named data.
func (d Dep) Key() string {
	if d.Kind == DepSideffect {
		return fmt.Sprintf("sideffect(%s)", d.Name)
	}
	return d.Name
}

// SideffectKeys returns the graph keys of the side-effect tokens bound
// to a sideffected dependency, or nil for every other kind.
func (d Dep) SideffectKeys() []string {
	if d.Kind != DepSideffected {
		return nil
	}
	keys := make([]string, len(d.Tokens))
	for i, tok := range d.Tokens {
		keys[i] = fmt.Sprintf("sideffect(%s<--%s)", d.Name, tok)
	}
	return keys
}

// Optionalish reports whether the dependency never gates satisfiability.
func (d Dep) Optionalish() bool {
	return d.Kind == DepOptional || d.Kind == DepVararg || d.Kind == DepVarargs
}

// KeywordKey returns the keyword under which an optional/mapped value is
// passed to the function.
func (d Dep) KeywordKey() string {
	if d.FnKey != "" {
		return d.FnKey
	}
	return d.Name
}

// PassedToFn reports whether the dependency's value is handed to the
// function at all. Side-effects participate in scheduling only.
func (d Dep) PassedToFn() bool { return d.Kind != DepSideffect }

// Equal reports structural equality, including auxiliary fields.
func (d Dep) Equal(o Dep) bool {
	if d.Name != o.Name || d.Kind != o.Kind || d.FnKey != o.FnKey || len(d.Tokens) != len(o.Tokens) {
		return false
	}
	for i := range d.Tokens {
		if d.Tokens[i] != o.Tokens[i] {
			return false
		}
	}
	return true
}

// String renders the canonical modifier syntax, the same syntax
// ParseDep accepts.
func (d Dep) String() string {
	switch d.Kind {
	case DepOptional:
		if d.FnKey != "" {
			return fmt.Sprintf("optional(%s, %s)", d.Name, d.FnKey)
		}
		return fmt.Sprintf("optional(%s)", d.Name)
	case DepMapped:
		return fmt.Sprintf("mapped(%s, %s)", d.Name, d.FnKey)
	case DepVararg:
		return fmt.Sprintf("vararg(%s)", d.Name)
	case DepVarargs:
		return fmt.Sprintf("varargs(%s)", d.Name)
	case DepSideffect:
		return fmt.Sprintf("sideffect(%s)", d.Name)
	case DepSideffected:
		return fmt.Sprintf("sideffected(%s)", strings.Join(append([]string{d.Name}, d.Tokens...), ", "))
	default:
		return d.Name
	}
}

var depRe = regexp.MustCompile(`^(optional|mapped|vararg|varargs|sideffect|sideffected)\((.*)\)$`)

// ParseDep parses the canonical modifier syntax into a Dep. A string
// without a modifier wrapper is a required dependency.
func ParseDep(s string) (Dep, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dep{}, fmt.Errorf("empty dependency name")
	}
	m := depRe.FindStringSubmatch(s)
	if m == nil {
		return Required(s), nil
	}
	parts := strings.Split(m[2], ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return Dep{}, fmt.Errorf("dependency %q has an empty name", s)
	}
	switch m[1] {
	case "optional":
		if len(parts) == 2 {
			return OptionalAs(parts[0], parts[1]), nil
		}
		if len(parts) == 1 {
			return Optional(parts[0]), nil
		}
	case "mapped":
		if len(parts) == 2 {
			return Mapped(parts[0], parts[1]), nil
		}
	case "vararg":
		if len(parts) == 1 {
			return Vararg(parts[0]), nil
		}
	case "varargs":
		if len(parts) == 1 {
			return Varargs(parts[0]), nil
		}
	case "sideffect":
		if len(parts) == 1 {
			return Sideffect(parts[0]), nil
		}
	case "sideffected":
		if len(parts) >= 2 {
			return Sideffected(parts[0], parts[1:]...), nil
		}
	}
	return Dep{}, fmt.Errorf("malformed dependency %q", s)
}

// ParseDeps parses a list of canonical dependency strings.
func ParseDeps(ss []string) ([]Dep, error) {
	deps := make([]Dep, 0, len(ss))
	for _, s := range ss {
		d, err := ParseDep(s)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}
