package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// InvoiceDocument carries everything the invoice PDF needs. The billing
// module maps its own types into this shape so the builders stay free of
// database concerns.
type InvoiceDocument struct {
	Number       string
	ProgramName  string
	CustomerName string
	PeriodStart  time.Time
	Lines        []InvoiceLine
	Total        float64
	GeneratedAt  time.Time
}

// InvoiceLine is one aggregated product line on an invoice.
type InvoiceLine struct {
	ProductName string
	Unit        string
	Quantity    int
	Rate        float64
	Amount      float64
}

// BillingReportDocument carries the aggregated billing report rows.
type BillingReportDocument struct {
	From        time.Time
	To          time.Time
	Lines       []BillingReportLine
	Total       float64
	GeneratedAt time.Time
}

// BillingReportLine is one program/package aggregate row.
type BillingReportLine struct {
	ProgramName string
	PackageName string
	Quantity    int
	Amount      float64
}

var invoiceTpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"amount": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"month":  func(t time.Time) string { return t.Format("January 2006") },
	"stamp":  func(t time.Time) string { return t.Format("02 Jan 2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { border: 1px solid #999; padding: 0.4rem 0.6rem; text-align: left; }
tfoot td { font-weight: bold; }
.meta { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>Invoice {{.Number}}</h1>
<p class="meta">
Program: {{.ProgramName}}{{if .CustomerName}} ({{.CustomerName}}){{end}}<br>
Period: {{month .PeriodStart}}<br>
Generated: {{stamp .GeneratedAt}}
</p>
<table>
<thead><tr><th>Product</th><th>Unit</th><th>Quantity</th><th>Rate</th><th>Amount</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.Unit}}</td><td>{{.Quantity}}</td><td>{{amount .Rate}}</td><td>{{amount .Amount}}</td></tr>
{{end}}</tbody>
<tfoot><tr><td colspan="4">Total</td><td>{{amount .Total}}</td></tr></tfoot>
</table>
</body>
</html>`))

var billingReportTpl = template.Must(template.New("billing-report").Funcs(template.FuncMap{
	"amount": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"day":    func(t time.Time) string { return t.Format("02 Jan 2006") },
	"stamp":  func(t time.Time) string { return t.Format("02 Jan 2006 15:04") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Billing report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { border: 1px solid #999; padding: 0.4rem 0.6rem; text-align: left; }
tfoot td { font-weight: bold; }
.meta { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>Billing report</h1>
<p class="meta">
Period: {{day .From}} to {{day .To}}<br>
Generated: {{stamp .GeneratedAt}}
</p>
<table>
<thead><tr><th>Program</th><th>Package</th><th>Quantity</th><th>Amount</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.ProgramName}}</td><td>{{.PackageName}}</td><td>{{.Quantity}}</td><td>{{amount .Amount}}</td></tr>
{{end}}</tbody>
<tfoot><tr><td colspan="3">Total</td><td>{{amount .Total}}</td></tr></tfoot>
</table>
</body>
</html>`))

// BuildInvoiceHTML renders the invoice PDF source document.
func BuildInvoiceHTML(doc InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildBillingReportHTML renders the billing report PDF source document.
func BuildBillingReportHTML(doc BillingReportDocument) (string, error) {
	var buf bytes.Buffer
	if err := billingReportTpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
