package mcp

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refundo/pkg/model"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type analyzerStub struct {
	result  *analyze.Result
	err     error
	calls   int
	policy  string
	invoice string
}

func (s *analyzerStub) Analyze(ctx context.Context, policyText, invoiceText string) (*analyze.Result, error) {
	s.calls++
	s.policy = policyText
	s.invoice = invoiceText
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type answererStub struct {
	answer string
	err    error
	calls  int
	input  query.AnswerInput
}

func (s *answererStub) Answer(ctx context.Context, input query.AnswerInput) (string, error) {
	s.calls++
	s.input = input
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	gt.A(t, result.Content).Length(1)
	textContent, ok := result.Content[0].(*mcp.TextContent)
	gt.True(t, ok)
	return textContent.Text
}

func TestNewServer(t *testing.T) {
	// Usecases are only touched when a tool is called
	server := New(nil, nil)
	gt.NotNil(t, server)
}

func TestAnalyzeTool(t *testing.T) {
	stub := &analyzerStub{
		result: &analyze.Result{
			Invoice: &model.StoredInvoice{ID: model.NewInvoiceID()},
			Message: "Invoice for Asha stored successfully with status: Declined",
		},
	}

	result, _, err := analyzeTool(stub)(context.Background(), nil, &analyzeInvoiceParams{
		PolicyText:  "Meals under $50 are reimbursable.",
		InvoiceText: "Dinner: $75",
	})
	gt.NoError(t, err)
	gt.Equal(t, stub.calls, 1)
	gt.Equal(t, stub.policy, "Meals under $50 are reimbursable.")
	gt.Equal(t, stub.invoice, "Dinner: $75")
	gt.Equal(t, resultText(t, result), "Invoice for Asha stored successfully with status: Declined")
}

func TestAnalyzeToolRequiresParams(t *testing.T) {
	stub := &analyzerStub{}

	_, _, err := analyzeTool(stub)(context.Background(), nil, &analyzeInvoiceParams{
		InvoiceText: "Dinner: $75",
	})
	gt.Error(t, err)

	_, _, err = analyzeTool(stub)(context.Background(), nil, &analyzeInvoiceParams{
		PolicyText: "Meals under $50 are reimbursable.",
	})
	gt.Error(t, err)

	gt.Equal(t, stub.calls, 0)
}

func TestAnalyzeToolError(t *testing.T) {
	stub := &analyzerStub{err: goerr.New("model unavailable")}

	_, _, err := analyzeTool(stub)(context.Background(), nil, &analyzeInvoiceParams{
		PolicyText:  "policy",
		InvoiceText: "invoice",
	})
	gt.Error(t, err)
}

func TestQueryTool(t *testing.T) {
	stub := &answererStub{answer: "Asha's invoice was declined."}

	result, _, err := queryTool(stub)(context.Background(), nil, &queryInvoicesParams{
		Query: "What happened to Asha's invoice?",
	})
	gt.NoError(t, err)
	gt.Equal(t, stub.calls, 1)
	gt.Equal(t, stub.input.Query, "What happened to Asha's invoice?")
	gt.Equal(t, resultText(t, result), "Asha's invoice was declined.")
}

func TestQueryToolRequiresQuery(t *testing.T) {
	stub := &answererStub{}

	_, _, err := queryTool(stub)(context.Background(), nil, &queryInvoicesParams{})
	gt.Error(t, err)
	gt.Equal(t, stub.calls, 0)
}

func TestQueryToolError(t *testing.T) {
	stub := &answererStub{err: goerr.New("search failed")}

	_, _, err := queryTool(stub)(context.Background(), nil, &queryInvoicesParams{Query: "anything"})
	gt.Error(t, err)
}
