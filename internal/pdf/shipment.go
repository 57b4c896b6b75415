// Package pdf renders shipment bills.
package pdf

import (
	"bytes"
	"fmt"
	"io"

	"transport-service/internal/model"
	"transport-service/pkg/validation"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageWidth = 190.0
	lineH     = 6.0
)

// Filename is the attachment name for a shipment bill
func Filename(s *model.Shipment) string {
	return fmt.Sprintf("shipment-%s.pdf", sanitize(s.BillNo))
}

// RenderShipment writes the consignment bill for s as a PDF
func RenderShipment(w io.Writer, tenant *model.Tenant, s *model.Shipment) error {
	settings := tenant.Settings.Data()
	currency := settings.Currency
	if currency == "" {
		currency = "INR"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Bill "+s.BillNo), false)
	pdf.SetAuthor(tr(tenant.Name), false)
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pageWidth, 9, tr(tenant.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if settings.CompanyAddress != "" {
		pdf.MultiCell(pageWidth, 5, tr(settings.CompanyAddress), "", "C", false)
	}
	if settings.GSTNumber != "" {
		pdf.CellFormat(pageWidth, 5, tr("GSTIN: "+settings.GSTNumber), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 8, "CONSIGNMENT NOTE", "TB", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	billLabel := s.BillNo
	if settings.InvoicePrefix != "" {
		billLabel = settings.InvoicePrefix + "-" + s.BillNo
	}
	pair(pdf, tr, "Bill No", billLabel, "Date", s.Date.Format(validation.DateLayout))
	pair(pdf, tr, "From", s.Source, "To", s.Destination)
	pair(pdf, tr, "Payment", string(s.PaymentMethod), "Status", string(s.Status))
	if s.Vehicle != nil || s.Driver != nil {
		vehicle, driver := "-", "-"
		if s.Vehicle != nil {
			vehicle = s.Vehicle.Number
		}
		if s.Driver != nil && s.Driver.User != nil {
			driver = s.Driver.User.Name
		}
		pair(pdf, tr, "Vehicle", vehicle, "Driver", driver)
	}
	pdf.Ln(3)

	// Parties
	half := pageWidth / 2
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(half, lineH, "Consignor", "1", 0, "L", false, 0, "")
	pdf.CellFormat(half, lineH, "Consignee", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	party(pdf, tr, half, s.ConsignorName, s.ConsigneeName)
	party(pdf, tr, half, s.ConsignorAddress, s.ConsigneeAddress)
	party(pdf, tr, half, gstLine(s.ConsignorGST), gstLine(s.ConsigneeGST))
	pdf.Ln(3)

	// Goods
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, lineH, "Goods", "1", 0, "L", false, 0, "")
	pdf.CellFormat(100, lineH, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, lineH, "Weight (kg)", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(60, lineH, tr(s.GoodsType), "1", 0, "L", false, 0, "")
	pdf.CellFormat(100, lineH, tr(truncate(s.GoodsDescription, 60)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, lineH, decimal.NewFromFloat(s.Weight).StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(3)

	// Charges
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, lineH, "Charges", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, lineH, "Amount ("+currency+")", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, c := range []struct {
		label  string
		amount float64
	}{
		{"Freight", s.FreightCharges},
		{"Hamali", s.HamaliCharges},
		{"Door delivery", s.DoorDeliveryCharges},
		{"Collection", s.CollectionCharges},
		{"Statistical", s.StatisticalCharges},
		{"Other", s.OtherCharges},
	} {
		pdf.CellFormat(140, lineH, c.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, lineH, decimal.NewFromFloat(c.amount).StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, lineH+1, "Grand total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, lineH+1, decimal.NewFromFloat(s.GrandTotal).StringFixed(2), "1", 1, "R", false, 0, "")

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(half, lineH, "Receiver's signature", "T", 0, "L", false, 0, "")
	pdf.CellFormat(half, lineH, tr("For "+tenant.Name), "T", 1, "R", false, 0, "")

	return pdf.Output(w)
}

// RenderShipmentBytes renders into memory so errors surface before any byte is sent
func RenderShipmentBytes(tenant *model.Tenant, s *model.Shipment) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderShipment(&buf, tenant, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pair(pdf *fpdf.Fpdf, tr func(string) string, k1, v1, k2, v2 string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(25, lineH, k1+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(70, lineH, tr(v1), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(25, lineH, k2+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(70, lineH, tr(v2), "", 1, "L", false, 0, "")
}

func party(pdf *fpdf.Fpdf, tr func(string) string, width float64, left, right string) {
	pdf.CellFormat(width, lineH, tr(truncate(left, 55)), "LR", 0, "L", false, 0, "")
	pdf.CellFormat(width, lineH, tr(truncate(right, 55)), "LR", 1, "L", false, 0, "")
}

func gstLine(gst string) string {
	if gst == "" {
		return ""
	}
	return "GSTIN: " + gst
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// sanitize keeps the filename header-safe
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
