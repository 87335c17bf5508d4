package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/usecase/analyze"
	"github.com/m-mizutani/refundo/pkg/usecase/query"
	"github.com/m-mizutani/refundo/pkg/utils/logging"
)

// analyzer is the ingestion half of the core consumed by the transport.
type analyzer interface {
	AnalyzeSources(ctx context.Context, policy analyze.Source, invoices []analyze.Source) (*analyze.Result, error)
}

// answerer is the query half of the core consumed by the transport.
type answerer interface {
	Answer(ctx context.Context, input query.AnswerInput) (string, error)
}

// Server is the HTTP transport over the analyze and query usecases.
type Server struct {
	echo *echo.Echo
	addr string
}

func New(addr string, analyzeUC analyzer, queryUC answerer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		logging.From(c.Request().Context()).Error("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"code", code,
			"error", err,
		)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	h := &handler{analyze: analyzeUC, query: queryUC}
	e.POST("/analyze_invoice/", h.analyzeInvoice)
	e.GET("/query_chatbot/", h.queryChatbot)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return &Server{
		echo: e,
		addr: addr,
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.From(ctx).Info("http server started", "addr", s.addr)

	select {
	case err := <-errCh:
		return goerr.Wrap(err, "http server failed", goerr.Value("addr", s.addr))

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown http server")
		}
		return nil
	}
}
