package collab

import (
	"context"
	"sync"
	"time"
)

// Contact is a caller's saved contact card, keyed by their channel address.
type Contact struct {
	Address   string
	Name      string
	Email     string
	Phone     string
	UpdatedAt time.Time
}

// ContactDirectory stores contact details captured from inbound messages.
type ContactDirectory interface {
	// Upsert merges non-empty fields into the contact for address.
	Upsert(ctx context.Context, contact Contact) (Contact, error)

	// Lookup returns the contact for address.
	Lookup(ctx context.Context, address string) (Contact, bool)
}

// InMemoryDirectory is a mutex-map contact directory.
type InMemoryDirectory struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{contacts: make(map[string]Contact)}
}

// Upsert merges non-empty fields into any existing contact for the address,
// so a caller who shares their name today and email tomorrow ends up with one
// complete card.
func (d *InMemoryDirectory) Upsert(_ context.Context, contact Contact) (Contact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing := d.contacts[contact.Address]
	existing.Address = contact.Address
	if contact.Name != "" {
		existing.Name = contact.Name
	}
	if contact.Email != "" {
		existing.Email = contact.Email
	}
	if contact.Phone != "" {
		existing.Phone = contact.Phone
	}
	existing.UpdatedAt = time.Now().UTC()
	d.contacts[contact.Address] = existing
	return existing, nil
}

// Lookup returns the contact for address.
func (d *InMemoryDirectory) Lookup(_ context.Context, address string) (Contact, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.contacts[address]
	return c, ok
}
