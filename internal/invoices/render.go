package invoices

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/mailer"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
)

var templateFuncs = map[string]any{
	"money": money.Format,
}

var textTemplate = texttemplate.Must(texttemplate.New("invoice.txt").Funcs(templateFuncs).Parse(
	`{{.Company.CompanyName}}
{{if .Company.Address}}{{.Company.Address}}
{{end}}
Invoice {{.Invoice.InvoiceNumber}}
Billed to: {{.Invoice.CustomerName}}
Date: {{.Invoice.CreatedAt.Format "2006-01-02"}}

{{range .Invoice.Items}}{{.Description}}  {{.Quantity}} x {{money .UnitPrice}} = {{money .Amount}}
{{end}}
Subtotal: {{money .Invoice.Subtotal}} {{.Company.Currency}}
VAT: {{money .Invoice.VAT}} {{.Company.Currency}}
Total: {{money .Invoice.Total}} {{.Company.Currency}}
`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("invoice.html").Funcs(templateFuncs).Parse(
	`<h2>{{.Company.CompanyName}}</h2>
<p>Invoice <strong>{{.Invoice.InvoiceNumber}}</strong><br>Billed to {{.Invoice.CustomerName}}<br>{{.Invoice.CreatedAt.Format "2006-01-02"}}</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Unit price</th><th>Amount</th></tr>
{{range .Invoice.Items}}<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{money .Amount}}</td></tr>
{{end}}</table>
<p>Subtotal {{money .Invoice.Subtotal}} {{.Company.Currency}}<br>VAT {{money .Invoice.VAT}} {{.Company.Currency}}<br><strong>Total {{money .Invoice.Total}} {{.Company.Currency}}</strong></p>
`))

type renderData struct {
	Company *models.CompanySettings
	Invoice *models.Invoice
}

// renderMessage builds the email for an invoice addressed to to.
func renderMessage(company *models.CompanySettings, invoice *models.Invoice, to string) (mailer.Message, error) {
	data := renderData{Company: company, Invoice: invoice}

	var text bytes.Buffer
	if err := textTemplate.Execute(&text, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render invoice text: %w", err)
	}
	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render invoice html: %w", err)
	}

	subject := fmt.Sprintf("Invoice %s", invoice.InvoiceNumber)
	if company.CompanyName != "" {
		subject = fmt.Sprintf("%s from %s", subject, company.CompanyName)
	}
	return mailer.Message{
		To:      to,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
