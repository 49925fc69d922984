package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

type memoryBillingRepo struct {
	entries  map[int64]Entry
	invoices map[int64]Invoice
	lines    map[int64][]InvoiceLine
	nextID   int64

	rates map[int64]float64
}

func newMemoryBillingRepo() *memoryBillingRepo {
	return &memoryBillingRepo{
		entries:  make(map[int64]Entry),
		invoices: make(map[int64]Invoice),
		lines:    make(map[int64][]InvoiceLine),
		rates:    map[int64]float64{1: 120, 2: 35.5},
	}
}

func (r *memoryBillingRepo) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	var out []Entry
	for id := int64(1); id <= r.nextID; id++ {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		if filters.ProgramID != nil && e.ProgramID != *filters.ProgramID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryBillingRepo) GetEntry(ctx context.Context, id int64) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	return e, nil
}

func (r *memoryBillingRepo) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	rate, ok := r.rates[e.ProductID]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	r.nextID++
	e.ID = r.nextID
	e.Rate = rate
	e.Amount = rate * float64(e.Quantity)
	r.entries[e.ID] = e
	return e, nil
}

func (r *memoryBillingRepo) UpdateEntry(ctx context.Context, id int64, e Entry) error {
	if _, ok := r.entries[id]; !ok {
		return shared.ErrNotFound
	}
	rate, ok := r.rates[e.ProductID]
	if !ok {
		return shared.ErrNotFound
	}
	e.ID = id
	e.Rate = rate
	e.Amount = rate * float64(e.Quantity)
	r.entries[id] = e
	return nil
}

func (r *memoryBillingRepo) DeleteEntry(ctx context.Context, id int64) error {
	if _, ok := r.entries[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memoryBillingRepo) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (r *memoryBillingRepo) GetInvoice(ctx context.Context, id int64) (Invoice, []InvoiceLine, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, nil, shared.ErrNotFound
	}
	return inv, r.lines[id], nil
}

func (r *memoryBillingRepo) GenerateInvoice(ctx context.Context, programID int64, period time.Time) (Invoice, error) {
	periodStart := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)
	for _, inv := range r.invoices {
		if inv.ProgramID == programID && inv.PeriodStart.Equal(periodStart) {
			return Invoice{}, shared.ErrDuplicate
		}
	}
	byProduct := map[int64]*InvoiceLine{}
	for _, e := range r.entries {
		if e.ProgramID != programID || e.EntryDate.Before(periodStart) || !e.EntryDate.Before(periodEnd) {
			continue
		}
		l, ok := byProduct[e.ProductID]
		if !ok {
			l = &InvoiceLine{ProductID: e.ProductID, Rate: e.Rate}
			byProduct[e.ProductID] = l
		}
		l.Quantity += e.Quantity
		l.Amount += e.Amount
	}
	if len(byProduct) == 0 {
		return Invoice{}, ErrNoEntries
	}
	r.nextID++
	inv := Invoice{ID: r.nextID, ProgramID: programID, PeriodStart: periodStart}
	inv.Number = "INV-" + periodStart.Format("200601")
	var lines []InvoiceLine
	for _, l := range byProduct {
		l.InvoiceID = inv.ID
		inv.Total += l.Amount
		lines = append(lines, *l)
	}
	r.invoices[inv.ID] = inv
	r.lines[inv.ID] = lines
	return inv, nil
}

func (r *memoryBillingRepo) Report(ctx context.Context, from, to time.Time) ([]ReportLine, error) {
	var out []ReportLine
	for _, e := range r.entries {
		if e.EntryDate.Before(from) || e.EntryDate.After(to) {
			continue
		}
		out = append(out, ReportLine{ProgramName: e.ProgramName, PackageName: "Catering", Quantity: e.Quantity, Amount: e.Amount})
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateEntrySnapshotsRate(t *testing.T) {
	svc := NewService(newMemoryBillingRepo())
	entry, err := svc.CreateEntry(context.Background(), Entry{ProgramID: 1, ProductID: 1, EntryDate: day(2026, time.May, 3), Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 120.0, entry.Rate)
	require.Equal(t, 480.0, entry.Amount)
}

func TestCreateEntryRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryBillingRepo())

	_, err := svc.CreateEntry(context.Background(), Entry{ProgramID: 1, ProductID: 1, EntryDate: day(2026, time.May, 3), Quantity: -1})
	require.Error(t, err)

	_, err = svc.CreateEntry(context.Background(), Entry{ProgramID: 1, ProductID: 1, Quantity: 2})
	require.Error(t, err)

	_, err = svc.CreateEntry(context.Background(), Entry{ProgramID: 1, ProductID: 99, EntryDate: day(2026, time.May, 3), Quantity: 2})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGenerateInvoiceAggregatesMonth(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		_, err := svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 1, EntryDate: day(2026, time.May, d), Quantity: 2})
		require.NoError(t, err)
	}
	_, err := svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 2, EntryDate: day(2026, time.May, 10), Quantity: 10})
	require.NoError(t, err)
	// Outside the month, must not be billed.
	_, err = svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 1, EntryDate: day(2026, time.June, 1), Quantity: 50})
	require.NoError(t, err)

	inv, err := svc.GenerateInvoice(ctx, 7, day(2026, time.May, 1))
	require.NoError(t, err)
	require.Equal(t, 6*120.0+10*35.5, inv.Total)
	require.Len(t, repo.lines[inv.ID], 2)
}

func TestGenerateInvoiceEmptyMonth(t *testing.T) {
	svc := NewService(newMemoryBillingRepo())
	_, err := svc.GenerateInvoice(context.Background(), 7, day(2026, time.May, 1))
	require.ErrorIs(t, err, ErrNoEntries)
}

func TestGenerateInvoiceDuplicateMonth(t *testing.T) {
	svc := NewService(newMemoryBillingRepo())
	ctx := context.Background()
	_, err := svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 1, EntryDate: day(2026, time.May, 3), Quantity: 2})
	require.NoError(t, err)

	_, err = svc.GenerateInvoice(ctx, 7, day(2026, time.May, 1))
	require.NoError(t, err)
	_, err = svc.GenerateInvoice(ctx, 7, day(2026, time.May, 15))
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestInvoiceDocumentMapsLines(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := NewService(repo)
	ctx := context.Background()
	_, err := svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 1, EntryDate: day(2026, time.May, 3), Quantity: 2})
	require.NoError(t, err)
	inv, err := svc.GenerateInvoice(ctx, 7, day(2026, time.May, 1))
	require.NoError(t, err)

	doc, err := svc.InvoiceDocument(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, doc.Number)
	require.Equal(t, inv.Total, doc.Total)
	require.Len(t, doc.Lines, 1)
	require.Equal(t, 240.0, doc.Lines[0].Amount)
}

func TestReportDocumentTotals(t *testing.T) {
	svc := NewService(newMemoryBillingRepo())
	ctx := context.Background()
	_, err := svc.CreateEntry(ctx, Entry{ProgramID: 7, ProductID: 1, EntryDate: day(2026, time.May, 3), Quantity: 2})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, Entry{ProgramID: 8, ProductID: 2, EntryDate: day(2026, time.May, 4), Quantity: 4})
	require.NoError(t, err)

	doc, err := svc.ReportDocument(ctx, day(2026, time.May, 1), day(2026, time.May, 31))
	require.NoError(t, err)
	require.Len(t, doc.Lines, 2)
	require.Equal(t, 2*120.0+4*35.5, doc.Total)
}
