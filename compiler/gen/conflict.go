package gen

// resolvePropertyConflicts disambiguates the property names of one bean.
//
// The first pass maps each derived getter name to the property that
// claimed it first; on a collision both parties switch to their
// alternative names. The map keeps pointing at the first claimant, so a
// third property hitting the same original name flips the first party
// again (a no-op) and itself. The second pass recomputes every name from
// the flipped flags; any residual collision cannot be solved and aborts
// the run.
func resolvePropertyConflicts(table string, props []Property) error {
	claimed := make(map[string]Property, len(props))
	for _, p := range props {
		name := p.Getter()
		if prev, ok := claimed[name]; ok {
			prev.UseAlternativeName()
			p.UseAlternativeName()
			continue
		}
		claimed[name] = p
	}
	final := make(map[string]Property, len(props))
	for _, p := range props {
		name := p.Getter()
		if prev, ok := final[name]; ok {
			return NewNamingConflictError(table, name, []string{prev.describe(), p.describe()})
		}
		final[name] = p
	}
	return nil
}

// resolveMethodConflicts disambiguates the navigation-method names of one
// bean. Unlike properties, methods are grouped by name first and every
// member of a colliding group switches at once; a residual collision
// after the switch aborts the run.
func resolveMethodConflicts(table string, methods []Method) error {
	groups := make(map[string][]Method, len(methods))
	for _, m := range methods {
		groups[m.Name()] = append(groups[m.Name()], m)
	}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, m := range group {
			m.UseAlternativeName()
		}
	}
	final := make(map[string]Method, len(methods))
	for _, m := range methods {
		name := m.Name()
		if prev, ok := final[name]; ok {
			return NewNamingConflictError(table, name, []string{prev.describe(), m.describe()})
		}
		final[name] = m
	}
	return nil
}
