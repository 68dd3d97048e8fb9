// ABOUTME: Tests for quote mutations, numbering, and tax math
// ABOUTME: Totals are derived from line items and settings on every write
package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fieldwork/models"
)

func TestQuoteTotalsWithTax(t *testing.T) {
	s := newTestStore(t)
	s.UpdateSettings(models.SettingsUpdate{TaxEnabled: boolPtr(true), TaxRate: floatPtr(8)})

	q, err := s.AddQuote(models.Quote{
		CustomerID: uuid.New(),
		LineItems: []models.LineItem{
			{Type: models.LineItemPart, Description: "Filter", Quantity: 2, UnitPrice: 10},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.InDelta(t, 20, q.Subtotal, 1e-9)
	assert.InDelta(t, 1.6, q.Tax, 1e-9)
	assert.InDelta(t, 21.6, q.Total, 1e-9)
	assert.Equal(t, models.QuoteStatusDraft, q.Status)
	assert.InDelta(t, 8, q.TaxRate, 1e-9, "quote captures the rate in force at creation")
}

func TestQuoteTotalsWithTaxDisabled(t *testing.T) {
	s := newTestStore(t)

	q, err := s.AddQuote(models.Quote{
		CustomerID: uuid.New(),
		LineItems: []models.LineItem{
			{Type: models.LineItemLabor, Description: "Diagnose", Quantity: 1.5, UnitPrice: 90},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 135, q.Subtotal, 1e-9)
	assert.Zero(t, q.Tax)
	assert.InDelta(t, 135, q.Total, 1e-9)
}

func TestQuoteNumbersIncrement(t *testing.T) {
	s := newTestStore(t)

	q1, err := s.AddQuote(models.Quote{CustomerID: uuid.New()})
	require.NoError(t, err)
	q2, err := s.AddQuote(models.Quote{CustomerID: uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, "Q-0001", q1.Number)
	assert.Equal(t, "Q-0002", q2.Number)
}

func TestQuoteUpdateRecomputesTotals(t *testing.T) {
	s := newTestStore(t)
	s.UpdateSettings(models.SettingsUpdate{TaxEnabled: boolPtr(true), TaxRate: floatPtr(10)})

	q, err := s.AddQuote(models.Quote{
		CustomerID: uuid.New(),
		LineItems: []models.LineItem{
			{Type: models.LineItemPart, Quantity: 1, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 110, q.Total, 1e-9)

	items := []models.LineItem{
		{Type: models.LineItemPart, Quantity: 3, UnitPrice: 100},
	}
	updated, err := s.UpdateQuote(q.ID, models.QuoteUpdate{LineItems: &items})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.InDelta(t, 300, updated.Subtotal, 1e-9)
	assert.InDelta(t, 30, updated.Tax, 1e-9)
	assert.InDelta(t, 330, updated.Total, 1e-9)

	// Changing the stored rate reprices the quote too.
	updated, err = s.UpdateQuote(q.ID, models.QuoteUpdate{TaxRate: floatPtr(0)})
	require.NoError(t, err)
	assert.Zero(t, updated.Tax)
	assert.InDelta(t, 300, updated.Total, 1e-9)
}

func TestQuoteStatusTransition(t *testing.T) {
	s := newTestStore(t)

	q, err := s.AddQuote(models.Quote{CustomerID: uuid.New()})
	require.NoError(t, err)

	updated, err := s.UpdateQuote(q.ID, models.QuoteUpdate{Status: strPtr(models.QuoteStatusAccepted)})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, updated.Status)
	assert.True(t, updated.UpdatedAt.After(q.CreatedAt) || updated.UpdatedAt.Equal(q.CreatedAt))
}

func TestQuoteLookupsByCustomerAndJob(t *testing.T) {
	s := newTestStore(t)

	customer, err := s.AddCustomer(models.Customer{Name: "Ada"})
	require.NoError(t, err)
	job, err := s.AddJob(models.Job{CustomerID: customer.ID, Title: "Furnace swap"})
	require.NoError(t, err)

	q, err := s.AddQuote(models.Quote{CustomerID: customer.ID, JobID: &job.ID})
	require.NoError(t, err)
	_, err = s.AddQuote(models.Quote{CustomerID: uuid.New()})
	require.NoError(t, err)

	forCustomer := s.QuotesForCustomer(customer.ID)
	require.Len(t, forCustomer, 1)
	assert.Equal(t, q.ID, forCustomer[0].ID)

	forJob := s.QuotesForJob(job.ID)
	require.Len(t, forJob, 1)
	assert.Equal(t, q.ID, forJob[0].ID)
}

func TestQuoteDelete(t *testing.T) {
	s := newTestStore(t)

	q, err := s.AddQuote(models.Quote{CustomerID: uuid.New()})
	require.NoError(t, err)

	deleted, err := s.DeleteQuote(q.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Nil(t, s.QuoteByID(q.ID))

	deleted, err = s.DeleteQuote(q.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete reports nothing removed")
}
