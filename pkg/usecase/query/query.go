package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/adapter"
	"github.com/m-mizutani/refundo/pkg/model"
	"github.com/m-mizutani/refundo/pkg/repository"
	"github.com/m-mizutani/refundo/pkg/utils/logging"
	"google.golang.org/genai"
)

// NoMatchMessage is returned verbatim when retrieval finds nothing. The
// model is not invoked in that case.
const NoMatchMessage = "No matching invoices found."

// searchLimit is the fixed top-k for retrieval.
const searchLimit = 5

const answerSystemPrompt = `You are an AI assistant for the HR department. ` +
	`Use the retrieved invoice analyses to answer the user's query in clear markdown format.`

// UseCase answers free-text questions about stored verdicts through
// retrieval-augmented generation.
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
}

// New creates a new query UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini) *UseCase {
	return &UseCase{
		repo:   repo,
		gemini: gemini,
	}
}

// AnswerInput carries the user query and optional filter arguments. The
// filters are accepted for interface compatibility but are NOT applied to
// retrieval: search is unfiltered top-k similarity over the whole store.
// Existing callers pass these values expecting exactly that, so adding real
// filtering is a compatibility break, not a bug fix.
type AnswerInput struct {
	Query        string
	EmployeeName string
	Date         string
	Status       string
}

// Answer embeds the query, retrieves the nearest stored verdicts, and asks
// the model to answer grounded on them. The model's text is returned
// verbatim without further parsing.
func (u *UseCase) Answer(ctx context.Context, input AnswerInput) (string, error) {
	if input.Query == "" {
		return "", goerr.New("query is required")
	}

	embResp, err := u.gemini.Embedding(ctx, input.Query)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed query")
	}
	vector, err := adapter.EmbeddingVector(embResp)
	if err != nil {
		return "", err
	}

	results, err := u.repo.SearchInvoices(ctx, firestore.Vector32(vector), searchLimit)
	if err != nil {
		return "", goerr.Wrap(err, "failed to search invoices")
	}

	if len(results) == 0 {
		return NoMatchMessage, nil
	}

	logging.From(ctx).Debug("retrieved invoices for query", "count", len(results))

	prompt := fmt.Sprintf("Query: %s\n\nRelevant Invoices:\n%s", input.Query, groundingContext(results))

	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(answerSystemPrompt, ""),
		},
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate answer")
	}

	return adapter.ResponseText(resp), nil
}

// groundingContext concatenates each retrieved record's content and metadata
// into the context block the answer prompt is grounded on.
func groundingContext(results []*model.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Invoice:\n%s\n\nMetadata: %s",
			r.Invoice.Content, metadataJSON(r.Invoice)))
	}
	return strings.Join(blocks, "\n\n")
}

func metadataJSON(inv *model.StoredInvoice) string {
	raw, err := json.Marshal(map[string]string{
		"invoice_id":    inv.InvoiceKey,
		"employee_name": inv.EmployeeName,
		"date":          inv.InvoiceDate,
		"status":        inv.Status,
		"reason":        inv.Reason,
	})
	if err != nil {
		return "{}"
	}
	return string(raw)
}
