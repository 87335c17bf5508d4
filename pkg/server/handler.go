package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/m-mizutani/refundo/pkg/adapter"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
)

type handler struct {
	analyze analyzer
	query   answerer
}

type analyzeResponse struct {
	Message string `json:"message"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// analyzeInvoice accepts a multipart form with a policy document and an
// invoice source. The employee_name field is accepted but unused: the stored
// name comes from the model's extraction, not from the form.
func (h *handler) analyzeInvoice(c echo.Context) error {
	policy, err := formSource(c, "policy_pdf")
	if err != nil {
		return err
	}
	invoice, err := formSource(c, "invoices_zip")
	if err != nil {
		return err
	}

	result, err := h.analyze.AnalyzeSources(c.Request().Context(), policy, []analyze.Source{invoice})
	if err != nil {
		if errors.Is(err, adapter.ErrExtraction) {
			return echo.NewHTTPError(http.StatusBadRequest, "could not extract text from uploaded file")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, analyzeResponse{Message: result.Message})
}

func (h *handler) queryChatbot(c echo.Context) error {
	userQuery := c.QueryParam("query")
	if userQuery == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	answer, err := h.query.Answer(c.Request().Context(), query.AnswerInput{
		Query:        userQuery,
		EmployeeName: c.QueryParam("employee_name"),
		Date:         c.QueryParam("date"),
		Status:       c.QueryParam("status"),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, queryResponse{Response: answer})
}

func formSource(c echo.Context, field string) (analyze.Source, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return analyze.Source{}, echo.NewHTTPError(http.StatusBadRequest, field+" file is required")
	}

	data, err := readFormFile(fh)
	if err != nil {
		return analyze.Source{}, echo.NewHTTPError(http.StatusBadRequest, "failed to read "+field)
	}

	return analyze.Source{Filename: fh.Filename, Data: data}, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return io.ReadAll(f)
}
