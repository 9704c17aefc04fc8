package core_test

import (
	"testing"

	"zenith-fieldservice/internal/core"
)

func TestReceiptDraft_NormalizationAndValidation(t *testing.T) {
	tests := []struct {
		name      string
		draft     core.ReceiptDraft
		expectErr bool
	}{
		{
			name: "happy path",
			draft: core.ReceiptDraft{
				VendorName:  "Grainger Industrial Supply",
				ReceiptDate: "2026-03-14",
				Confidence:  0.95,
				Lines: []core.ReceiptDraftLine{
					{Description: "3/4in PVC Pipe", Quantity: "12", UnitCost: "2.50"},
					{Description: "Pipe cement", Quantity: "1", UnitCost: "8.99"},
				},
			},
			expectErr: false,
		},
		{
			name: "whitespace survives normalization",
			draft: core.ReceiptDraft{
				VendorName:  "  Ferguson Plumbing  ",
				ReceiptDate: " 2026-03-14 ",
				Confidence:  0.8,
				Lines: []core.ReceiptDraftLine{
					{Description: " Copper fitting ", Quantity: " 4 ", UnitCost: " 3.25 "},
				},
			},
			expectErr: false,
		},
		{
			name: "missing vendor",
			draft: core.ReceiptDraft{
				ReceiptDate: "2026-03-14",
				Confidence:  0.9,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "1", UnitCost: "10.00"},
				},
			},
			expectErr: true,
		},
		{
			name: "bad date format",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "03/14/2026",
				Confidence:  0.9,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "1", UnitCost: "10.00"},
				},
			},
			expectErr: true,
		},
		{
			name: "no lines",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "2026-03-14",
				Confidence:  0.9,
			},
			expectErr: true,
		},
		{
			name: "non-decimal quantity",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "2026-03-14",
				Confidence:  0.9,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "a few", UnitCost: "10.00"},
				},
			},
			expectErr: true,
		},
		{
			name: "zero quantity",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "2026-03-14",
				Confidence:  0.9,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "0", UnitCost: "10.00"},
				},
			},
			expectErr: true,
		},
		{
			name: "negative unit cost",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "2026-03-14",
				Confidence:  0.9,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "1", UnitCost: "-10.00"},
				},
			},
			expectErr: true,
		},
		{
			name: "confidence out of range",
			draft: core.ReceiptDraft{
				VendorName:  "Home Depot Pro",
				ReceiptDate: "2026-03-14",
				Confidence:  1.5,
				Lines: []core.ReceiptDraftLine{
					{Description: "Filter", Quantity: "1", UnitCost: "10.00"},
				},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.draft.Normalize()
			err := tt.draft.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestReceiptDraft_ToReceiptInput(t *testing.T) {
	draft := core.ReceiptDraft{
		VendorName:  "Grainger Industrial Supply",
		ReceiptDate: "2026-03-14",
		Notes:       "Job site pickup",
		Confidence:  0.95,
		Lines: []core.ReceiptDraftLine{
			{Description: "3/4in PVC Pipe", Quantity: "12", UnitCost: "2.50"},
		},
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	input := draft.ToReceiptInput(7)
	if input.VendorID != 7 {
		t.Errorf("VendorID = %d, want 7", input.VendorID)
	}
	if input.ReceiptDate != "2026-03-14" {
		t.Errorf("ReceiptDate = %s, want 2026-03-14", input.ReceiptDate)
	}
	if len(input.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(input.Lines))
	}
	if !input.Lines[0].Quantity.Equal(input.Lines[0].Quantity.Truncate(0)) || input.Lines[0].Quantity.String() != "12" {
		t.Errorf("Quantity = %s, want 12", input.Lines[0].Quantity)
	}
	if input.Lines[0].UnitCost.String() != "2.5" {
		t.Errorf("UnitCost = %s, want 2.5", input.Lines[0].UnitCost)
	}
}
