package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/model"
)

// DefaultCollection is the collection holding analyzed invoices. Records
// written under this name carry the metadata schema of model.StoredInvoice;
// there is no migration scheme, so schema changes are not backward
// compatible with previously written records.
const DefaultCollection = "invoice_reimbursements"

var ErrInvoiceNotFound = goerr.New("invoice not found")

// Repository is the semantic store for analyzed invoices. SearchInvoices is
// a nearest-neighbor lookup over the stored embeddings; the similarity
// metric belongs to the backing index, not to this code.
type Repository interface {
	// PutInvoice persists an analyzed invoice with its embedding
	PutInvoice(ctx context.Context, inv *model.StoredInvoice) error

	// GetInvoice retrieves an invoice record by its surrogate ID
	GetInvoice(ctx context.Context, id model.InvoiceID) (*model.StoredInvoice, error)

	// ListInvoices retrieves invoice records, newest first
	ListInvoices(ctx context.Context, offset, limit int) ([]*model.StoredInvoice, error)

	// SearchInvoices returns up to limit records ranked most-similar first
	SearchInvoices(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.SearchResult, error)
}
