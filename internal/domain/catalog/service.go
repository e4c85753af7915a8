package catalog

// Service exposes read access to the loaded catalog. Both the table and
// the policy set are immutable after construction, so the service carries
// no locking.
type Service struct {
	table    *Table
	policies *PolicySet
}

func NewService(table *Table, policies *PolicySet) *Service {
	return &Service{table: table, policies: policies}
}

// Lookup resolves a test definition by name.
func (s *Service) Lookup(name string) (*TestDefinition, bool) {
	return s.table.Lookup(name)
}

// ListTests returns all test definitions.
func (s *Service) ListTests() []*TestDefinition {
	return s.table.List()
}

// PolicyFor returns the escalation policy for a severity tier.
func (s *Service) PolicyFor(severity Severity) (*EscalationPolicy, bool) {
	return s.policies.ForSeverity(severity)
}

// ListPolicies returns the full escalation matrix.
func (s *Service) ListPolicies() []*EscalationPolicy {
	return s.policies.List()
}
