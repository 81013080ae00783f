// Package server wires the echo HTTP server: middleware, routes and
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/resonancehq/resonance/internal/profile"
	"github.com/resonancehq/resonance/plugin/llm"
	"github.com/resonancehq/resonance/plugin/rag"
	apiv1 "github.com/resonancehq/resonance/server/router/api/v1"
	"github.com/resonancehq/resonance/store"
)

// Server is the HTTP server for the Resonance API.
type Server struct {
	echo    *echo.Echo
	http    *http.Server
	profile *profile.Profile
}

// New assembles the server. The store, llm client and retriever may each
// be nil; the handlers degrade feature by feature.
func New(prof *profile.Profile, st *store.Store, client llm.Client, retriever *rag.Retriever) *Server {
	e := echo.New()
	e.Use(middleware.Recover())
	// The browser extension calls from arbitrary article origins.
	e.Use(middleware.CORS())
	e.Use(requestLogger())

	apiv1.NewAPIV1Service(prof, st, client, retriever).Register(e)

	return &Server{echo: e, http: &http.Server{Handler: e}, profile: prof}
}

// Start blocks serving HTTP until the listener fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("listening", "addr", addr, "version", profile.Version)
	s.http.Addr = addr
	return s.http.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestLogger logs one line per request with a short request id.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := shortuuid.New()
			start := time.Now()
			err := next(c)
			req := c.Request()
			status := 0
			if res, uerr := echo.UnwrapResponse(c.Response()); uerr == nil {
				status = res.Status
			}
			slog.Info("request",
				"id", id,
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
