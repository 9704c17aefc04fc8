package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptDraftLine is one extracted line of a receipt draft. Amounts are
// strings on the wire so the extractor cannot smuggle float artifacts in.
type ReceiptDraftLine struct {
	Description string `json:"description" jsonschema_description:"What was purchased"`
	Quantity    string `json:"quantity" jsonschema_description:"Quantity as an exact decimal string, e.g. \"3\""`
	UnitCost    string `json:"unit_cost" jsonschema_description:"Unit cost as an exact decimal string, e.g. \"12.50\""`
	PartCode    string `json:"part_code,omitempty" jsonschema_description:"Matching part code if one was given, otherwise empty"`
}

// ReceiptDraft is a machine-extracted receipt awaiting operator review. It is
// never persisted directly; the operator confirms it into a real receipt.
type ReceiptDraft struct {
	VendorName  string             `json:"vendor_name" jsonschema_description:"Vendor or store name as printed"`
	ReceiptDate string             `json:"receipt_date" jsonschema_description:"Receipt date in YYYY-MM-DD format"`
	Notes       string             `json:"notes,omitempty" jsonschema_description:"Anything notable that does not fit the fields"`
	Lines       []ReceiptDraftLine `json:"lines" jsonschema_description:"One entry per priced line on the receipt"`
	Confidence  float64            `json:"confidence" jsonschema_description:"Extraction confidence from 0.0 to 1.0"`
	Reasoning   string             `json:"reasoning" jsonschema_description:"Short explanation of how the fields were derived"`
}

// Normalize trims whitespace the extractor tends to leave behind.
func (d *ReceiptDraft) Normalize() {
	d.VendorName = strings.TrimSpace(d.VendorName)
	d.ReceiptDate = strings.TrimSpace(d.ReceiptDate)
	d.Notes = strings.TrimSpace(d.Notes)
	for i := range d.Lines {
		d.Lines[i].Description = strings.TrimSpace(d.Lines[i].Description)
		d.Lines[i].Quantity = strings.TrimSpace(d.Lines[i].Quantity)
		d.Lines[i].UnitCost = strings.TrimSpace(d.Lines[i].UnitCost)
		d.Lines[i].PartCode = strings.TrimSpace(d.Lines[i].PartCode)
	}
}

// Validate checks the draft for structural problems. All issues are collected
// so the operator sees everything wrong with an extraction at once.
func (d *ReceiptDraft) Validate() error {
	var issues []string

	if d.VendorName == "" {
		issues = append(issues, "vendor name is missing")
	}
	if d.ReceiptDate == "" {
		issues = append(issues, "receipt date is missing")
	} else if _, err := time.Parse("2006-01-02", d.ReceiptDate); err != nil {
		issues = append(issues, fmt.Sprintf("receipt date %q is not YYYY-MM-DD", d.ReceiptDate))
	}
	if len(d.Lines) == 0 {
		issues = append(issues, "no line items were extracted")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		issues = append(issues, fmt.Sprintf("confidence %.2f is outside 0.0-1.0", d.Confidence))
	}

	for i, line := range d.Lines {
		if line.Description == "" {
			issues = append(issues, fmt.Sprintf("line %d: description is missing", i+1))
		}
		qty, err := decimal.NewFromString(line.Quantity)
		if err != nil {
			issues = append(issues, fmt.Sprintf("line %d: quantity %q is not a decimal", i+1, line.Quantity))
		} else if !qty.IsPositive() {
			issues = append(issues, fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		cost, err := decimal.NewFromString(line.UnitCost)
		if err != nil {
			issues = append(issues, fmt.Sprintf("line %d: unit cost %q is not a decimal", i+1, line.UnitCost))
		} else if cost.IsNegative() {
			issues = append(issues, fmt.Sprintf("line %d: unit cost must not be negative", i+1))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ToReceiptInput converts a validated draft into receipt input for the given
// vendor. Call Validate first; this assumes the decimal strings parse.
func (d *ReceiptDraft) ToReceiptInput(vendorID int) ReceiptInput {
	input := ReceiptInput{
		VendorID:    vendorID,
		ReceiptDate: d.ReceiptDate,
		Notes:       d.Notes,
	}
	for _, line := range d.Lines {
		qty, _ := decimal.NewFromString(line.Quantity)
		cost, _ := decimal.NewFromString(line.UnitCost)
		input.Lines = append(input.Lines, ReceiptLineInput{
			Description: line.Description,
			Quantity:    qty,
			UnitCost:    cost,
		})
	}
	return input
}
