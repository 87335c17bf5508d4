package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refundo/pkg/model"
)

func TestInvoiceKey(t *testing.T) {
	gt.Equal(t, model.InvoiceKey("Asha", "2024-03-01"), "INV-Asha-2024-03-01")

	// Deterministic: same inputs yield the same key
	gt.Equal(t, model.InvoiceKey("Asha", "2024-03-01"), model.InvoiceKey("Asha", "2024-03-01"))

	// Missing fields leave empty segments rather than failing
	gt.Equal(t, model.InvoiceKey("", "2024-03-01"), "INV--2024-03-01")
	gt.Equal(t, model.InvoiceKey("", ""), "INV--")
}

func TestVerdictDisplay(t *testing.T) {
	v := model.Verdict{Status: model.StatusDeclined, EmployeeName: "Ravi"}
	gt.Equal(t, v.DisplayStatus(), "Declined")
	gt.Equal(t, v.DisplayName(), "Ravi")

	empty := model.Verdict{}
	gt.Equal(t, empty.DisplayStatus(), model.StatusUnknown)
	gt.Equal(t, empty.DisplayName(), "Unknown")
}

func TestNewInvoiceID(t *testing.T) {
	id1 := model.NewInvoiceID()
	id2 := model.NewInvoiceID()
	gt.NotEqual(t, id1, "")
	gt.NotEqual(t, id1, id2)
}
