package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type InvoiceID string

// NewInvoiceID generates a new unique InvoiceID
func NewInvoiceID() InvoiceID {
	return InvoiceID(uuid.New().String())
}

// Canonical reimbursement statuses. The model is instructed to answer with
// one of these, but the verdict keeps whatever string actually came back.
const (
	StatusFullyReimbursed     = "Fully Reimbursed"
	StatusPartiallyReimbursed = "Partially Reimbursed"
	StatusDeclined            = "Declined"
	StatusUnknown             = "Unknown"
)

// unknownField is the display placeholder for any verdict field the model's
// reply did not contain.
const unknownField = "Unknown"

// Verdict is the structured result of one policy evaluation. Every field is
// independently optional: an empty string means the model's reply did not
// contain that field. Status is stored as given, without validation.
type Verdict struct {
	Status       string
	EmployeeName string
	InvoiceDate  string
	Reason       string
}

// DisplayStatus returns the status for human-readable output, substituting
// Unknown when the model's reply had no parseable status line.
func (v Verdict) DisplayStatus() string {
	if v.Status == "" {
		return StatusUnknown
	}
	return v.Status
}

// DisplayName returns the employee name for human-readable output.
func (v Verdict) DisplayName() string {
	if v.EmployeeName == "" {
		return unknownField
	}
	return v.EmployeeName
}

// InvoiceKey derives the composite document key from the extracted employee
// name and invoice date. It is deterministic but NOT unique: two invoices for
// the same employee on the same date yield the same key. Callers must treat
// it as a secondary lookup key, never as identity.
func InvoiceKey(employeeName, invoiceDate string) string {
	return fmt.Sprintf("INV-%s-%s", employeeName, invoiceDate)
}

// StoredInvoice is the persisted unit in the semantic store. Content holds
// the original invoice text concatenated with a rendered verdict summary and
// is what the embedding indexes against.
type StoredInvoice struct {
	ID         InvoiceID
	InvoiceKey string
	Content    string
	Embedding  firestore.Vector32

	Status       string
	EmployeeName string
	InvoiceDate  string
	Reason       string

	CreatedAt time.Time
}

// Verdict reconstructs the verdict fields carried in the stored metadata.
func (s *StoredInvoice) Verdict() Verdict {
	return Verdict{
		Status:       s.Status,
		EmployeeName: s.EmployeeName,
		InvoiceDate:  s.InvoiceDate,
		Reason:       s.Reason,
	}
}

// SearchResult is one ranked hit from a similarity search. Distance is the
// cosine distance reported by the store; lower is more similar.
type SearchResult struct {
	Invoice  *StoredInvoice
	Distance float64
}
