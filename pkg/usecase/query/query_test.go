package query_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refundo/pkg/model"
	"github.com/m-mizutani/refundo/pkg/repository"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"google.golang.org/genai"
)

type mockGemini struct {
	reply         string
	generateCalls int
	embedCalls    int
	lastPrompt    string
}

func (m *mockGemini) GenerateContent(_ context.Context, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.generateCalls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.lastPrompt = contents[0].Parts[0].Text
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(m.reply, genai.RoleModel)},
		},
	}, nil
}

func (m *mockGemini) Embedding(_ context.Context, _ string) (*genai.EmbedContentResponse, error) {
	m.embedCalls++
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{
			{Values: []float32{1, 0, 0}},
		},
	}, nil
}

type failingSearchRepo struct {
	repository.Repository
}

func (f *failingSearchRepo) SearchInvoices(_ context.Context, _ firestore.Vector32, _ int) ([]*model.SearchResult, error) {
	return nil, errors.New("firestore unavailable")
}

func storeInvoice(t *testing.T, repo repository.Repository, name, date, status string, embedding firestore.Vector32) *model.StoredInvoice {
	t.Helper()

	inv := &model.StoredInvoice{
		ID:           model.NewInvoiceID(),
		InvoiceKey:   model.InvoiceKey(name, date),
		Content:      "Invoice:\nExpense by " + name + "\n\nAnalysis:\nStatus: " + status,
		Embedding:    embedding,
		Status:       status,
		EmployeeName: name,
		InvoiceDate:  date,
		CreatedAt:    time.Now(),
	}
	gt.NoError(t, repo.PutInvoice(context.Background(), inv))
	return inv
}

func TestAnswerEmptyStoreShortCircuits(t *testing.T) {
	repo := repository.NewMemory()
	gemini := &mockGemini{reply: "should never be used"}
	uc := query.New(repo, gemini)

	answer, err := uc.Answer(context.Background(), query.AnswerInput{Query: "any fully reimbursed invoices?"})
	gt.NoError(t, err)
	gt.Equal(t, answer, query.NoMatchMessage)

	// The fixed message must be produced without a single model invocation
	gt.Equal(t, gemini.generateCalls, 0)
}

func TestAnswerGroundsOnRetrievedInvoices(t *testing.T) {
	repo := repository.NewMemory()
	storeInvoice(t, repo, "Asha", "2024-03-01", model.StatusFullyReimbursed, firestore.Vector32{1, 0, 0})
	storeInvoice(t, repo, "Ravi", "2024-04-02", model.StatusDeclined, firestore.Vector32{0, 1, 0})
	storeInvoice(t, repo, "Lena", "2024-05-03", model.StatusPartiallyReimbursed, firestore.Vector32{0, 0, 1})

	gemini := &mockGemini{reply: "Asha's taxi invoice was fully reimbursed."}
	uc := query.New(repo, gemini)

	answer, err := uc.Answer(context.Background(), query.AnswerInput{Query: "what happened to Asha's taxi invoice?"})
	gt.NoError(t, err)
	gt.Equal(t, answer, "Asha's taxi invoice was fully reimbursed.")
	gt.Equal(t, gemini.generateCalls, 1)

	// All three stored records fit under k=5 and appear in the grounding context
	gt.S(t, gemini.lastPrompt).Contains("INV-Asha-2024-03-01")
	gt.S(t, gemini.lastPrompt).Contains("INV-Ravi-2024-04-02")
	gt.S(t, gemini.lastPrompt).Contains("INV-Lena-2024-05-03")
	gt.S(t, gemini.lastPrompt).Contains("what happened to Asha's taxi invoice?")
}

func TestAnswerFiltersAreNotApplied(t *testing.T) {
	repo := repository.NewMemory()
	storeInvoice(t, repo, "Asha", "2024-03-01", model.StatusFullyReimbursed, firestore.Vector32{1, 0, 0})
	storeInvoice(t, repo, "Ravi", "2024-04-02", model.StatusDeclined, firestore.Vector32{0, 1, 0})

	gemini := &mockGemini{reply: "Here is what I found."}
	uc := query.New(repo, gemini)

	_, err := uc.Answer(context.Background(), query.AnswerInput{
		Query:        "list reimbursed invoices",
		EmployeeName: "Asha",
		Status:       model.StatusFullyReimbursed,
	})
	gt.NoError(t, err)

	// Retrieval stays unfiltered: Ravi's declined invoice is retrieved even
	// though the caller passed employee/status filter arguments
	gt.S(t, gemini.lastPrompt).Contains("INV-Ravi-2024-04-02")
}

func TestAnswerEmptyQuery(t *testing.T) {
	uc := query.New(repository.NewMemory(), &mockGemini{})

	_, err := uc.Answer(context.Background(), query.AnswerInput{})
	gt.Error(t, err)
}

func TestAnswerSearchFailurePropagates(t *testing.T) {
	gemini := &mockGemini{reply: "unused"}
	uc := query.New(&failingSearchRepo{}, gemini)

	_, err := uc.Answer(context.Background(), query.AnswerInput{Query: "anything"})
	gt.Error(t, err)
	gt.Equal(t, gemini.generateCalls, 0)
}
