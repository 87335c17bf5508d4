package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// distanceField carries the computed cosine distance in vector search
// results. It is not part of the stored document.
const distanceField = "Distance"

// Firestore implements Repository backed by a Firestore collection with a
// vector index on the Embedding field.
type Firestore struct {
	client     *firestore.Client
	collection string
}

type FirestoreOption func(*Firestore)

// WithCollection overrides the collection name
func WithCollection(name string) FirestoreOption {
	return func(r *Firestore) {
		r.collection = name
	}
}

// New creates a Firestore-backed repository. The client is long-lived and
// shared across calls; Close releases it at process shutdown.
func New(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	r := &Firestore{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Firestore) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}

func (r *Firestore) PutInvoice(ctx context.Context, inv *model.StoredInvoice) error {
	doc := r.client.Collection(r.collection).Doc(string(inv.ID))
	if _, err := doc.Set(ctx, inv); err != nil {
		return goerr.Wrap(err, "failed to put invoice", goerr.Value("id", inv.ID))
	}
	return nil
}

func (r *Firestore) GetInvoice(ctx context.Context, id model.InvoiceID) (*model.StoredInvoice, error) {
	doc, err := r.client.Collection(r.collection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrInvoiceNotFound, "no such invoice", goerr.Value("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get invoice", goerr.Value("id", id))
	}

	var inv model.StoredInvoice
	if err := doc.DataTo(&inv); err != nil {
		return nil, goerr.Wrap(err, "failed to decode invoice", goerr.Value("id", id))
	}

	return &inv, nil
}

func (r *Firestore) ListInvoices(ctx context.Context, offset, limit int) ([]*model.StoredInvoice, error) {
	query := r.client.Collection(r.collection).
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var invoices []*model.StoredInvoice
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate invoices")
		}

		var inv model.StoredInvoice
		if err := doc.DataTo(&inv); err != nil {
			return nil, goerr.Wrap(err, "failed to decode invoice", goerr.Value("doc", doc.Ref.ID))
		}
		invoices = append(invoices, &inv)
	}

	return invoices, nil
}

func (r *Firestore) SearchInvoices(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.SearchResult, error) {
	query := r.client.Collection(r.collection).FindNearest(
		"Embedding",
		embedding,
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		},
	)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var results []*model.SearchResult
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search invoices")
		}

		var inv model.StoredInvoice
		if err := doc.DataTo(&inv); err != nil {
			return nil, goerr.Wrap(err, "failed to decode invoice", goerr.Value("doc", doc.Ref.ID))
		}

		distance, _ := doc.Data()[distanceField].(float64)
		results = append(results, &model.SearchResult{
			Invoice:  &inv,
			Distance: distance,
		})
	}

	return results, nil
}
