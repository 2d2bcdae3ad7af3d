package config

import (
	"fmt"
	"sync"
)

// Section represents a registerable group of related settings. Sections
// own their defaults, validation and typed accessors; the manager only
// moves their data in and out of the store.
type Section interface {
	// ID returns the unique section identifier used as the storage key
	ID() string

	// Title returns a human-readable section title
	Title() string

	// Description returns a human-readable section description
	Description() string

	// Data returns the section's current configuration data
	Data() map[string]any

	// SetData updates the section from stored configuration data
	SetData(data map[string]any) error

	// Validate validates the section's current configuration
	Validate() error

	// Reset restores the section to its default configuration
	Reset()
}

// Manager coordinates configuration sections and their persistence.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a new configuration manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// Store returns the underlying configuration store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection registers a configuration section with the manager.
// Section IDs must be unique; registration order is preserved.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("section '%s' is already registered", id)
	}

	m.sections[id] = section
	m.order = append(m.order, id)
	return nil
}

// GetSection returns the section with the given ID.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns all registered sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll loads the store from disk and pushes each section's stored
// data into the section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		data, err := m.store.GetSection(id)
		if err != nil {
			return fmt.Errorf("failed to read section '%s': %w", id, err)
		}
		if err := m.sections[id].SetData(data); err != nil {
			return fmt.Errorf("failed to apply section '%s': %w", id, err)
		}
	}

	return nil
}

// SaveAll validates every section, pushes each section's data into the
// store and persists the store to disk.
func (m *Manager) SaveAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		section := m.sections[id]
		if err := section.Validate(); err != nil {
			return fmt.Errorf("section '%s' failed validation: %w", id, err)
		}
		if err := m.store.SetSection(id, section.Data()); err != nil {
			return fmt.Errorf("failed to stage section '%s': %w", id, err)
		}
	}

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return nil
}

// ResetAll restores every registered section to its defaults. The store
// is not touched; call SaveAll to persist the reset state.
func (m *Manager) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		m.sections[id].Reset()
	}
}
