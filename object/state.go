package object

import (
	"sort"

	"fortio.org/log"
)

// Environment holds the variables of one block, closure or definition call.
// Lookups continue in the enclosing scope, assignments always stay local.
type Environment struct {
	vars  map[string]Object
	outer *Environment
}

func NewRootEnvironment() *Environment {
	return NewEnclosedEnvironment(nil)
}

// NewEnclosedEnvironment starts a scope inside outer. Definitions use a nil outer:
// they only see their parameters.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{vars: make(map[string]Object), outer: outer}
}

func (e *Environment) Get(name string) (Object, bool) {
	for s := e; s != nil; s = s.outer {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set defines name in this scope, shadowing any outer variable of the same name.
func (e *Environment) Set(name string, val Object) {
	if _, found := e.vars[name]; found {
		log.Debugf("let %s: redefined in the same scope", name)
	}
	e.vars[name] = val
}

// Names returns the sorted visible variable names, for error messages.
func (e *Environment) Names() []string {
	seen := make(map[string]bool)
	var res []string
	for s := e; s != nil; s = s.outer {
		for k := range s.vars {
			if !seen[k] {
				seen[k] = true
				res = append(res, k)
			}
		}
	}
	sort.Strings(res)
	return res
}
