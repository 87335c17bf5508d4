// Package mcp exposes the invoice analysis and query operations as MCP
// tools over stdio, so agent hosts can drive the pipeline directly with
// already-extracted text.
package mcp

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type analyzer interface {
	Analyze(ctx context.Context, policyText, invoiceText string) (*analyze.Result, error)
}

type answerer interface {
	Answer(ctx context.Context, input query.AnswerInput) (string, error)
}

type analyzeInvoiceParams struct {
	PolicyText  string `json:"policy_text" jsonschema:"Plain text of the company reimbursement policy"`
	InvoiceText string `json:"invoice_text" jsonschema:"Plain text extracted from the employee invoice"`
}

type queryInvoicesParams struct {
	Query string `json:"query" jsonschema:"Free-text question about stored invoice verdicts"`
}

// Server wraps the usecases as an MCP stdio server.
type Server struct {
	server *mcp.Server
}

func New(analyzeUC analyzer, queryUC answerer) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "refundo",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_invoice",
		Description: "Evaluate an employee invoice against a reimbursement policy and store the verdict",
	}, analyzeTool(analyzeUC))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_invoices",
		Description: "Answer a free-text question about previously analyzed invoices",
	}, queryTool(queryUC))

	return &Server{server: server}
}

func analyzeTool(uc analyzer) func(context.Context, *mcp.CallToolRequest, *analyzeInvoiceParams) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, params *analyzeInvoiceParams) (*mcp.CallToolResult, any, error) {
		if params.PolicyText == "" || params.InvoiceText == "" {
			return nil, nil, goerr.New("policy_text and invoice_text are required")
		}

		result, err := uc.Analyze(ctx, params.PolicyText, params.InvoiceText)
		if err != nil {
			return nil, nil, err
		}

		return textResult(result.Message), nil, nil
	}
}

func queryTool(uc answerer) func(context.Context, *mcp.CallToolRequest, *queryInvoicesParams) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, params *queryInvoicesParams) (*mcp.CallToolResult, any, error) {
		if params.Query == "" {
			return nil, nil, goerr.New("query is required")
		}

		answer, err := uc.Answer(ctx, query.AnswerInput{Query: params.Query})
		if err != nil {
			return nil, nil, err
		}

		return textResult(answer), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// Run serves MCP requests over stdio until the transport closes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server failed")
	}
	return nil
}
