// ABOUTME: Device-local settings operations
// ABOUTME: Tax configuration, currency, and numbering prefixes
package store

import (
	"github.com/harperreed/fieldwork/models"
)

func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// UpdateSettings applies the non-nil fields and returns the result.
// Settings are device-local: no change event, no sync.
func (s *Store) UpdateSettings(upd models.SettingsUpdate) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := &s.state.Settings
	if upd.BusinessName != nil {
		cfg.BusinessName = *upd.BusinessName
	}
	if upd.Currency != nil {
		cfg.Currency = *upd.Currency
	}
	if upd.TaxEnabled != nil {
		cfg.TaxEnabled = *upd.TaxEnabled
	}
	if upd.TaxRate != nil {
		cfg.TaxRate = *upd.TaxRate
	}
	if upd.QuotePrefix != nil {
		cfg.QuotePrefix = *upd.QuotePrefix
	}
	if upd.InvoicePrefix != nil {
		cfg.InvoicePrefix = *upd.InvoicePrefix
	}

	s.snapshotLocked()
	return *cfg
}

func (s *Store) ResetSettings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Settings = models.DefaultSettings()
	s.snapshotLocked()
	return s.state.Settings
}
