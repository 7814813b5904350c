// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/config"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/pkg/optics"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// QuoteInput is a configured pair as shown on a printable quote
type QuoteInput struct {
	Reference    string
	ProductName  string
	LensType     string
	Summary      summary.Summary
	Prescription *prescription.Form
}

// QuoteData represents the data passed to the quote template
type QuoteData struct {
	Reference   string
	QuoteDate   string
	ValidUntil  string
	ProductName string
	LensType    string
	Currency    string
	Company     CompanyInfo
	Items       []QuoteLine
	Included    []string
	Quantity    int
	Subtotal    string
	Shipping    string
	Discount    string
	HasDiscount bool
	Total       string
	Eyes        []EyeRow
	PD          string
}

// QuoteLine is one priced line of the quote
type QuoteLine struct {
	Name      string
	UnitPrice string
	Price     string
}

// EyeRow is one eye of the prescription table. Axis is printed in both notations.
type EyeRow struct {
	Label    string
	SPH      string
	CYL      string
	AxisINT  string
	AxisTABO string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name  string
	Email string
}

// GenerateQuote renders a quote for a configured pair as PDF
func (s *Service) GenerateQuote(in QuoteInput) (*bytes.Buffer, error) {
	htmlContent, err := s.generateHTML(s.quoteData(in, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	// Convert HTML to PDF
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) quoteData(in QuoteInput, now time.Time) QuoteData {
	data := QuoteData{
		Reference:   in.Reference,
		QuoteDate:   now.Format("January 2, 2006"),
		ValidUntil:  now.AddDate(0, 0, 14).Format("January 2, 2006"),
		ProductName: in.ProductName,
		LensType:    in.LensType,
		Currency:    s.config.Checkout.Currency,
		Company: CompanyInfo{
			Name:  s.config.App.CompanyName,
			Email: s.config.App.CompanyEmail,
		},
		Quantity:    in.Summary.Quantity,
		Subtotal:    money(in.Summary.Subtotal),
		Shipping:    money(in.Summary.Shipping),
		Discount:    money(in.Summary.Discount),
		HasDiscount: in.Summary.Discount.IsPositive(),
		Total:       money(in.Summary.Total),
	}

	for _, item := range in.Summary.Items {
		if item.Type == summary.TypeShipping {
			continue
		}
		data.Items = append(data.Items, QuoteLine{
			Name:      item.Name,
			UnitPrice: money(item.UnitPrice),
			Price:     money(item.Price),
		})
	}
	for _, item := range in.Summary.Included {
		data.Included = append(data.Included, item.Name)
	}

	if f := in.Prescription; f != nil {
		data.PD = f.PD.StringFixed(1)
		if f.RightEnabled {
			data.Eyes = append(data.Eyes, eyeRow("Right (OD)", f.Eye(lens.EyeRight)))
		}
		if f.LeftEnabled {
			data.Eyes = append(data.Eyes, eyeRow("Left (OS)", f.Eye(lens.EyeLeft)))
		}
	}

	return data
}

func eyeRow(label string, eye prescription.EyePrescription) EyeRow {
	row := EyeRow{
		Label:    label,
		SPH:      eye.SPH,
		CYL:      eye.CYL,
		AxisINT:  prescription.Unset,
		AxisTABO: prescription.Unset,
	}
	if deg, ok := prescription.AxisDegrees(eye.Axis); ok {
		row.AxisINT = fmt.Sprintf("%d°", deg)
		row.AxisTABO = fmt.Sprintf("%d°", optics.RoundDegrees(optics.IntToTabo(float64(deg))))
	}
	return row
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data QuoteData) (string, error) {
	tmpl := template.Must(template.New("quote").Parse(quoteTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// Quote HTML template
const quoteTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Quote {{.Reference}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .quote-title {
            font-size: 28px;
            font-weight: bold;
            color: #2563eb;
            margin-bottom: 10px;
        }
        .section-title {
            font-size: 16px;
            font-weight: bold;
            margin: 20px 0 10px;
            color: #374151;
        }
        table.grid {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 20px;
        }
        table.grid th,
        table.grid td {
            border: 1px solid #ddd;
            padding: 10px 8px;
            text-align: left;
        }
        table.grid th {
            background-color: #f8f9fa;
        }
        .num {
            text-align: right !important;
        }
        .totals {
            float: right;
            width: 300px;
        }
        .totals td {
            padding: 8px;
            border-bottom: 1px solid #eee;
        }
        .total-row {
            font-size: 18px;
            font-weight: bold;
        }
        .footer {
            clear: both;
            margin-top: 50px;
            padding-top: 20px;
            border-top: 1px solid #eee;
            text-align: center;
            color: #666;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            <p>{{.Company.Email}}</p>
        </div>
        <div>
            <div class="quote-title">QUOTE</div>
            <p><strong>Reference:</strong> {{.Reference}}</p>
            <p><strong>Date:</strong> {{.QuoteDate}}</p>
            <p><strong>Valid until:</strong> {{.ValidUntil}}</p>
        </div>
    </div>

    <p><strong>{{.ProductName}}</strong>{{if .LensType}} with {{.LensType}} lenses{{end}}, quantity {{.Quantity}}</p>

    {{if .Eyes}}
    <div class="section-title">Prescription</div>
    <table class="grid">
        <thead>
            <tr><th>Eye</th><th>SPH</th><th>CYL</th><th>AXIS (INT)</th><th>AXIS (TABO)</th></tr>
        </thead>
        <tbody>
            {{range .Eyes}}
            <tr><td>{{.Label}}</td><td>{{.SPH}}</td><td>{{.CYL}}</td><td>{{.AxisINT}}</td><td>{{.AxisTABO}}</td></tr>
            {{end}}
        </tbody>
    </table>
    <p><strong>PD:</strong> {{.PD}} mm</p>
    {{end}}

    <div class="section-title">Items</div>
    <table class="grid">
        <thead>
            <tr><th>Item</th><th class="num">Unit price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr><td>{{.Name}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Price}}</td></tr>
            {{end}}
        </tbody>
    </table>
    {{if .Included}}<p><small>Included: {{range $i, $name := .Included}}{{if $i}}, {{end}}{{$name}}{{end}}</small></p>{{end}}

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td class="num">{{.Subtotal}} {{.Currency}}</td></tr>
            <tr><td>Shipping:</td><td class="num">{{.Shipping}} {{.Currency}}</td></tr>
            {{if .HasDiscount}}<tr><td>Discount:</td><td class="num">-{{.Discount}} {{.Currency}}</td></tr>{{end}}
            <tr class="total-row"><td>Total:</td><td class="num">{{.Total}} {{.Currency}}</td></tr>
        </table>
    </div>

    <div class="footer">
        <p>Prices are valid until {{.ValidUntil}}. Questions? Contact us at {{.Company.Email}}</p>
    </div>
</body>
</html>
`
