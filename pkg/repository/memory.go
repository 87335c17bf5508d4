package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/model"
)

// Memory is an in-process Repository used by tests and by local runs without
// a Firestore project. Search ranks stored invoices by cosine distance to
// the query embedding.
type Memory struct {
	mu       sync.RWMutex
	invoices map[model.InvoiceID]*model.StoredInvoice
}

func NewMemory() *Memory {
	return &Memory{
		invoices: make(map[model.InvoiceID]*model.StoredInvoice),
	}
}

func (r *Memory) PutInvoice(_ context.Context, inv *model.StoredInvoice) error {
	if inv.ID == "" {
		return goerr.New("invoice ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *inv
	r.invoices[inv.ID] = &copied
	return nil
}

func (r *Memory) GetInvoice(_ context.Context, id model.InvoiceID) (*model.StoredInvoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, goerr.Wrap(ErrInvoiceNotFound, "no such invoice", goerr.Value("id", id))
	}

	copied := *inv
	return &copied, nil
}

func (r *Memory) ListInvoices(_ context.Context, offset, limit int) ([]*model.StoredInvoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.StoredInvoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		all = append(all, inv)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	results := make([]*model.StoredInvoice, len(all))
	for i, inv := range all {
		copied := *inv
		results[i] = &copied
	}
	return results, nil
}

func (r *Memory) SearchInvoices(_ context.Context, embedding firestore.Vector32, limit int) ([]*model.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*model.SearchResult
	for _, inv := range r.invoices {
		copied := *inv
		results = append(results, &model.SearchResult{
			Invoice:  &copied,
			Distance: cosineDistance(embedding, inv.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func cosineDistance(a, b firestore.Vector32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2 // max cosine distance, treated as unrelated
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
