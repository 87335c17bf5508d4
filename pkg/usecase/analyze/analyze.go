package analyze

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/adapter"
	"github.com/m-mizutani/refundo/pkg/model"
	"github.com/m-mizutani/refundo/pkg/repository"
	"github.com/m-mizutani/refundo/pkg/utils/logging"
	"google.golang.org/genai"
)

// UseCase evaluates an employee invoice against a reimbursement policy and
// records the verdict in the semantic store.
type UseCase struct {
	repo      repository.Repository
	gemini    adapter.Gemini
	extractor adapter.Extractor
	storage   adapter.Storage
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithExtractor replaces the text extractor used by AnalyzeSources
func WithExtractor(e adapter.Extractor) Option {
	return func(uc *UseCase) {
		uc.extractor = e
	}
}

// WithStorage enables archival of raw uploaded sources to object storage
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

// New creates a new analyze UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:      repo,
		gemini:    gemini,
		extractor: adapter.NewExtractor(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Result is the outcome of one analysis call.
type Result struct {
	Invoice *model.StoredInvoice
	Message string
}

// Analyze runs one policy evaluation over the extracted texts: a single
// model invocation, best-effort verdict parsing, and a single store write.
// If the model call fails nothing is written; if the store write fails the
// error is returned and no success message is produced.
func (u *UseCase) Analyze(ctx context.Context, policyText, invoiceText string) (*Result, error) {
	prompt := buildEvaluationPrompt(policyText, invoiceText)

	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		},
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate invoice")
	}

	verdict := ParseVerdict(adapter.ResponseText(resp))
	content := renderContent(invoiceText, verdict.Status, verdict.Reason)

	embResp, err := u.gemini.Embedding(ctx, content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed invoice content")
	}
	vector, err := adapter.EmbeddingVector(embResp)
	if err != nil {
		return nil, err
	}

	inv := &model.StoredInvoice{
		ID:           model.NewInvoiceID(),
		InvoiceKey:   model.InvoiceKey(verdict.EmployeeName, verdict.InvoiceDate),
		Content:      content,
		Embedding:    firestore.Vector32(vector),
		Status:       verdict.Status,
		EmployeeName: verdict.EmployeeName,
		InvoiceDate:  verdict.InvoiceDate,
		Reason:       verdict.Reason,
		CreatedAt:    time.Now(),
	}

	if err := u.repo.PutInvoice(ctx, inv); err != nil {
		return nil, goerr.Wrap(err, "failed to store invoice verdict", goerr.Value("key", inv.InvoiceKey))
	}

	logging.From(ctx).Info("invoice analyzed",
		"id", inv.ID,
		"key", inv.InvoiceKey,
		"status", verdict.DisplayStatus(),
	)

	return &Result{
		Invoice: inv,
		Message: fmt.Sprintf("Invoice for %s stored successfully with status: %s",
			verdict.DisplayName(), verdict.DisplayStatus()),
	}, nil
}

// Source is one uploaded document to analyze.
type Source struct {
	Filename string
	Data     []byte
}

// AnalyzeSources extracts text from the uploaded policy and invoice sources,
// runs Analyze over the result, and archives the raw sources when an archive
// storage is configured. Invoice texts are concatenated in source order.
// Archive failures are logged but do not fail an already stored analysis.
func (u *UseCase) AnalyzeSources(ctx context.Context, policy Source, invoices []Source) (*Result, error) {
	policyText, err := u.extractor.Extract(ctx, policy.Filename, bytes.NewReader(policy.Data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract policy text", goerr.Value("filename", policy.Filename))
	}

	texts := make([]string, 0, len(invoices))
	for _, src := range invoices {
		text, err := u.extractor.Extract(ctx, src.Filename, bytes.NewReader(src.Data))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract invoice text", goerr.Value("filename", src.Filename))
		}
		texts = append(texts, text)
	}

	result, err := u.Analyze(ctx, policyText, strings.Join(texts, "\n"))
	if err != nil {
		return nil, err
	}

	if u.storage != nil {
		u.archive(ctx, result.Invoice.ID, policy, invoices)
	}

	return result, nil
}

func (u *UseCase) archive(ctx context.Context, id model.InvoiceID, policy Source, invoices []Source) {
	logger := logging.From(ctx)

	sources := append([]Source{policy}, invoices...)
	for _, src := range sources {
		key := path.Join("invoices", string(id), src.Filename)
		if err := u.storage.Archive(ctx, key, bytes.NewReader(src.Data)); err != nil {
			logger.Warn("failed to archive source", "key", key, "error", err)
		}
	}
}
