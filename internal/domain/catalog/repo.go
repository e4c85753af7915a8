package catalog

import "fmt"

// Table is the reference range table: an immutable index of test
// definitions by name. It is built once at startup and is safe for
// concurrent lookups without locking.
type Table struct {
	defs  map[string]*TestDefinition
	names []string
}

// NewTable validates every definition and builds the lookup index.
// Duplicate names are rejected.
func NewTable(defs []TestDefinition) (*Table, error) {
	t := &Table{defs: make(map[string]*TestDefinition, len(defs))}
	for i := range defs {
		d := defs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate test definition: %s", d.Name)
		}
		t.defs[d.Name] = &d
		t.names = append(t.names, d.Name)
	}
	return t, nil
}

// Lookup returns the definition for a test name. Unknown names return
// ok=false, never an error: the table may lag behind the live test catalog.
func (t *Table) Lookup(name string) (*TestDefinition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// List returns all definitions in load order.
func (t *Table) List() []*TestDefinition {
	out := make([]*TestDefinition, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.defs[n])
	}
	return out
}

// Len returns the number of definitions in the table.
func (t *Table) Len() int { return len(t.defs) }

// PolicySet is the immutable escalation matrix indexed by severity.
type PolicySet struct {
	policies map[Severity]*EscalationPolicy
	order    []Severity
}

// NewPolicySet validates every policy and builds the severity index.
func NewPolicySet(policies []EscalationPolicy) (*PolicySet, error) {
	ps := &PolicySet{policies: make(map[Severity]*EscalationPolicy, len(policies))}
	for i := range policies {
		p := policies[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ps.policies[p.Severity]; dup {
			return nil, fmt.Errorf("duplicate escalation policy for severity %s", p.Severity)
		}
		ps.policies[p.Severity] = &p
		ps.order = append(ps.order, p.Severity)
	}
	return ps, nil
}

// ForSeverity returns the policy for a severity tier, ok=false when the
// matrix has no entry for it.
func (ps *PolicySet) ForSeverity(s Severity) (*EscalationPolicy, bool) {
	p, ok := ps.policies[s]
	return p, ok
}

// List returns all policies in load order.
func (ps *PolicySet) List() []*EscalationPolicy {
	out := make([]*EscalationPolicy, 0, len(ps.order))
	for _, s := range ps.order {
		out = append(out, ps.policies[s])
	}
	return out
}
