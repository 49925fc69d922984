package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/sahyadri-hs/backoffice/report"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	CreateEntry(ctx context.Context, e Entry) (Entry, error)
	UpdateEntry(ctx context.Context, id int64, e Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, []InvoiceLine, error)
	GenerateInvoice(ctx context.Context, programID int64, period time.Time) (Invoice, error)
	Report(ctx context.Context, from, to time.Time) ([]ReportLine, error)
}

// Service holds billing business logic.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	return s.repo.ListEntries(ctx, filters)
}

func (s *Service) GetEntry(ctx context.Context, id int64) (Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) CreateEntry(ctx context.Context, e Entry) (Entry, error) {
	if err := validateEntry(e); err != nil {
		return Entry{}, err
	}
	return s.repo.CreateEntry(ctx, e)
}

func (s *Service) UpdateEntry(ctx context.Context, id int64, e Entry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	return s.repo.UpdateEntry(ctx, id, e)
}

func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	return s.repo.DeleteEntry(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

// GenerateInvoice creates the invoice for a program's calendar month.
func (s *Service) GenerateInvoice(ctx context.Context, programID int64, period time.Time) (Invoice, error) {
	return s.repo.GenerateInvoice(ctx, programID, period)
}

// InvoiceDocument loads an invoice and maps it to the PDF builder input.
func (s *Service) InvoiceDocument(ctx context.Context, id int64) (report.InvoiceDocument, error) {
	inv, lines, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return report.InvoiceDocument{}, err
	}
	doc := report.InvoiceDocument{
		Number:      inv.Number,
		ProgramName: inv.ProgramName,
		PeriodStart: inv.PeriodStart,
		Total:       inv.Total,
		GeneratedAt: time.Now(),
	}
	for _, l := range lines {
		doc.Lines = append(doc.Lines, report.InvoiceLine{
			ProductName: l.ProductName,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			Rate:        l.Rate,
			Amount:      l.Amount,
		})
	}
	return doc, nil
}

func (s *Service) Report(ctx context.Context, from, to time.Time) ([]ReportLine, error) {
	return s.repo.Report(ctx, from, to)
}

// ReportDocument runs the report and maps it to the PDF builder input.
func (s *Service) ReportDocument(ctx context.Context, from, to time.Time) (report.BillingReportDocument, error) {
	lines, err := s.repo.Report(ctx, from, to)
	if err != nil {
		return report.BillingReportDocument{}, err
	}
	doc := report.BillingReportDocument{From: from, To: to, GeneratedAt: time.Now()}
	for _, l := range lines {
		doc.Total += l.Amount
		doc.Lines = append(doc.Lines, report.BillingReportLine{
			ProgramName: l.ProgramName,
			PackageName: l.PackageName,
			Quantity:    l.Quantity,
			Amount:      l.Amount,
		})
	}
	return doc, nil
}

func validateEntry(e Entry) error {
	if e.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if e.EntryDate.IsZero() {
		return fmt.Errorf("entry date is required")
	}
	return nil
}
