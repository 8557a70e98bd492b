// Package server exposes the filter-gradient runner over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/RodgersLuo/DeepBind-code/internal/jobfile"
	"github.com/RodgersLuo/DeepBind-code/internal/logger"
	"github.com/RodgersLuo/DeepBind-code/internal/metrics"
	"github.com/RodgersLuo/DeepBind-code/internal/runner"
	"github.com/RodgersLuo/DeepBind-code/internal/seqconv"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Health is the payload of GET /healthz.
type Health struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// DefaultBodyLimit caps the size of a job body in bytes.
const DefaultBodyLimit int64 = 64 << 20

// Server serves jobs on one runner. Jobs are executed one at a time since
// backends are not required to be safe for concurrent use.
type Server struct {
	runner    *runner.Runner
	log       logger.Logger
	bodyLimit int64
	mu        sync.Mutex
}

// New creates a server around r with DefaultBodyLimit.
func New(r *runner.Runner, log logger.Logger) *Server {
	return &Server{runner: r, log: log, bodyLimit: DefaultBodyLimit}
}

// WithBodyLimit sets the largest accepted job body. Non-positive values keep
// the current limit.
func (s *Server) WithBodyLimit(n int64) *Server {
	if n > 0 {
		s.bodyLimit = n
	}
	return s
}

// Register mounts the routes on e. Job routes reject bodies over the body
// limit with 413.
func (s *Server) Register(e *echo.Echo) {
	limit := middleware.BodyLimit(s.bodyLimit)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.POST("/v1/filter-grad", s.handleFilterGrad, limit)
	e.POST("/v1/check", s.handleCheck, limit)
}

// NewEcho returns an echo instance with the standard middleware and the
// server routes.
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, Health{Status: "ok", Backend: s.runner.Backend().Name()})
}

func (s *Server) handleFilterGrad(c *echo.Context) error {
	ctx, job, err := s.decode(c)
	if err != nil {
		return writeJobError(c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.runner.Run(ctx, job)
	if err != nil {
		return writeJobError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleCheck answers 200 with the report whether or not parity holds;
// the report's ok field carries the verdict.
func (s *Server) handleCheck(c *echo.Context) error {
	ctx, job, err := s.decode(c)
	if err != nil {
		return writeJobError(c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rep, err := s.runner.Check(ctx, job)
	if err != nil && !errors.Is(err, runner.ErrMismatch) {
		return writeJobError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// decode reads the job body and tags the request context with a request id.
func (s *Server) decode(c *echo.Context) (context.Context, *jobfile.Job, error) {
	requestID := uuid.NewString()
	c.Response().Header().Set(echo.HeaderXRequestID, requestID)

	log := s.log.With("request_id", requestID)
	ctx := logger.WithContext(c.Request().Context(), log)

	job, err := jobfile.Decode(c.Request().Body)
	if err != nil {
		log.Warn("rejected job body", "error", err)
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return ctx, nil, err
		}
		return ctx, nil, &seqconv.ArgumentError{Arg: "body", Details: err.Error()}
	}
	return ctx, job, nil
}

func writeJobError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, seqconv.ErrInvalidArgument):
		return writeError(c, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, echo.ErrStatusRequestEntityTooLarge):
		return writeError(c, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return writeError(c, http.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}
