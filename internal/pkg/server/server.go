// Package server exposes a hexbin scatterplot over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/fredbi/hexbinviz/internal/pkg/chart"
	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/visual"
	"github.com/gin-gonic/gin"
)

const (
	contentTypeSVG  = "image/svg+xml"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Server serves the scenes of a [visual.Visual].
//
// Every scene request runs one update cycle over the current table.
type Server struct {
	options

	cfg    *config.Config
	visual *visual.Visual
	engine *gin.Engine

	mu    sync.RWMutex
	table *model.Table
}

// viewQuery holds the query parameters of scene requests. Zero values select the configured defaults.
type viewQuery struct {
	Width  float64 `form:"width" binding:"gte=0"`
	Height float64 `form:"height" binding:"gte=0"`
	Radius float64 `form:"radius" binding:"gte=0"`
	Fill   string  `form:"fill"`
}

// New builds a [Server] for a visual, initially serving table.
func New(cfg *config.Config, v *visual.Visual, table *model.Table, opts ...Option) *Server {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "server"))

	s := &Server{
		options: o,
		cfg:     cfg,
		visual:  v,
		table:   table,
	}
	s.engine = s.setupRouter()

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetTable replaces the table served by the next update cycles.
func (s *Server) SetTable(table *model.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = table
}

// Table returns the table currently served.
func (s *Server) Table() *model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.table
}

// Run listens until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.l.Info("listening", slog.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.l.Info("server stopped")

	return nil
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.l))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": s.cfg.Name + " is running",
		})
	})

	r.GET("/visual.svg", s.getSVG)
	r.GET("/visual.html", s.getHTML)
	r.GET("/options/:object", s.getOptions)
	r.PUT("/data", s.putData)

	return r
}

// getSVG handles GET /visual.svg
func (s *Server) getSVG(c *gin.Context) {
	var buf bytes.Buffer
	if _, ok := s.update(c, &buf); !ok {
		return
	}

	c.Data(http.StatusOK, contentTypeSVG, buf.Bytes())
}

// getHTML handles GET /visual.html
func (s *Server) getHTML(c *gin.Context) {
	pass, ok := s.update(c, io.Discard)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := chart.New(s.cfg, pass).BuildPage().Render(&buf); err != nil {
		failure(c, http.StatusInternalServerError, "failed to render chart", err)

		return
	}

	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

// getOptions handles GET /options/:object
func (s *Server) getOptions(c *gin.Context) {
	instances := s.visual.Enumerate(c.Param("object"))
	if instances == nil {
		instances = []config.ObjectInstance{}
	}

	success(c, instances)
}

// putData handles PUT /data
func (s *Server) putData(c *gin.Context) {
	var table model.Table
	if err := c.ShouldBindJSON(&table); err != nil {
		failure(c, http.StatusBadRequest, "invalid data view", err)

		return
	}

	s.SetTable(&table)
	s.l.Info("table replaced", slog.Int("rows", len(table.Rows)), slog.Int("columns", len(table.Columns)))

	success(c, gin.H{
		"rows":    len(table.Rows),
		"columns": len(table.Columns),
	})
}

func (s *Server) update(c *gin.Context, w io.Writer) (*visual.Pass, bool) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failure(c, http.StatusBadRequest, "invalid query parameters", err)

		return nil, false
	}

	opts := s.cfg.Options()
	if q.Radius > 0 {
		opts.HexRadius = q.Radius
	}
	if q.Fill != "" {
		opts.Fill = q.Fill
	}

	pass, err := s.visual.Update(w, visual.UpdateOptions{
		Table:    s.Table(),
		Objects:  opts.Objects(),
		Viewport: model.Viewport{Width: q.Width, Height: q.Height},
	})
	if err != nil {
		failure(c, http.StatusInternalServerError, "update failed", err)

		return nil, false
	}

	return pass, true
}
