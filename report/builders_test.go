package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildInvoiceHTML(t *testing.T) {
	doc := InvoiceDocument{
		Number:      "INV-202605-0012",
		ProgramName: "Summer Camp <North>",
		PeriodStart: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		Lines: []InvoiceLine{
			{ProductName: "Full board", Unit: "day", Quantity: 42, Rate: 120, Amount: 5040},
		},
		Total:       5040,
		GeneratedAt: time.Date(2026, time.June, 1, 9, 30, 0, 0, time.UTC),
	}
	html, err := BuildInvoiceHTML(doc)
	require.NoError(t, err)
	require.Contains(t, html, "INV-202605-0012")
	require.Contains(t, html, "Summer Camp &lt;North&gt;")
	require.Contains(t, html, "May 2026")
	require.Contains(t, html, "5040.00")
}

func TestBuildBillingReportHTML(t *testing.T) {
	doc := BillingReportDocument{
		From: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
		Lines: []BillingReportLine{
			{ProgramName: "Summer Camp", PackageName: "Catering", Quantity: 10, Amount: 355},
		},
		Total:       355,
		GeneratedAt: time.Date(2026, time.June, 1, 9, 30, 0, 0, time.UTC),
	}
	html, err := BuildBillingReportHTML(doc)
	require.NoError(t, err)
	require.Contains(t, html, "01 May 2026 to 31 May 2026")
	require.Contains(t, html, "Catering")
	require.Contains(t, html, "355.00")
}
