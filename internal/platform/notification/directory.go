package notification

import "sync"

// Contact maps a clinical role to a delivery channel and address.
type Contact struct {
	Role      string  `json:"role"`
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
}

// Directory resolves escalation-policy roles to contacts.
type Directory struct {
	mu       sync.RWMutex
	contacts map[string]Contact
}

func NewDirectory(contacts []Contact) *Directory {
	d := &Directory{contacts: make(map[string]Contact, len(contacts))}
	for _, c := range contacts {
		d.contacts[c.Role] = c
	}
	return d
}

// DefaultDirectory covers every role the default escalation policies name.
// Real deployments replace this with an on-call roster integration.
func DefaultDirectory() *Directory {
	return NewDirectory([]Contact{
		{Role: "attending_physician", Channel: ChannelPager, Recipient: "pager:attending"},
		{Role: "charge_nurse", Channel: ChannelSMS, Recipient: "+10000000001"},
		{Role: "on_call_physician", Channel: ChannelPager, Recipient: "pager:on-call"},
		{Role: "nursing_supervisor", Channel: ChannelSMS, Recipient: "+10000000002"},
		{Role: "medical_director", Channel: ChannelEmail, Recipient: "medical.director@example.org"},
		{Role: "chief_medical_officer", Channel: ChannelEmail, Recipient: "cmo@example.org"},
	})
}

// Lookup returns the contact for a role.
func (d *Directory) Lookup(role string) (Contact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contacts[role]
	return c, ok
}

// Set adds or replaces a role's contact.
func (d *Directory) Set(c Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[c.Role] = c
}
