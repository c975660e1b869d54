package compose

import "github.com/tc-functors/tc/pkg/topology"

// buildMutation implements spec.md §4.3's Mutation builder: lifts
// types_map verbatim and composes each field resolver's target.
func (c *Composer) buildMutation(spec *topology.MutationSpec, parent *topology.TopologySpec) *Mutation {
	m := &Mutation{
		TypesMap:  spec.TypesMap,
		Resolvers: map[string]*Resolver{},
	}
	for field, rspec := range spec.Resolvers {
		m.Resolvers[field] = c.buildResolver(rspec, parent)
	}
	return m
}

func (c *Composer) buildResolver(spec *topology.ResolverSpec, parent *topology.TopologySpec) *Resolver {
	r := &Resolver{Input: spec.Input, Output: spec.Output, Subscribe: spec.Subscribe}
	switch {
	case spec.Function != "":
		r.Entity = TargetFunction
		r.TargetName = spec.Function
		if fn, ok := parent.Functions[spec.Function]; ok && c.Auth != nil {
			r.TargetARN = c.Auth.FunctionARN(fn.FQN)
		}
	case spec.Event != "":
		r.Entity = TargetState
		r.TargetName = spec.Event
		if c.Auth != nil {
			r.TargetARN = c.Auth.StateMachineARN(parent.FQN)
		}
	case spec.Table != "":
		r.Entity = TargetTable
		r.TargetName = spec.Table
	}
	return r
}
