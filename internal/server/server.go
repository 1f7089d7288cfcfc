// Package server exposes the explorer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/woescope-cli/internal/analysis"
	"github.com/KaramelBytes/woescope-cli/internal/chart"
	"github.com/KaramelBytes/woescope-cli/internal/explorer"
	"github.com/KaramelBytes/woescope-cli/internal/export"
	"github.com/KaramelBytes/woescope-cli/internal/frame"
	"github.com/KaramelBytes/woescope-cli/internal/logger"
	"github.com/KaramelBytes/woescope-cli/internal/metrics"
)

// Config bounds what clients may upload.
type Config struct {
	MaxUploadBytes   int64
	UploadsPerMinute int
	DatasetTTL       time.Duration
}

// DefaultConfig allows 64 MiB uploads, 30 per minute, kept for an hour.
func DefaultConfig() Config {
	return Config{MaxUploadBytes: 64 << 20, UploadsPerMinute: 30, DatasetTTL: time.Hour}
}

// Server holds uploaded datasets in memory and answers analysis requests.
type Server struct {
	cfg      Config
	explorer *explorer.Explorer
	datasets *cache.Cache
	limiter  *rate.Limiter
	log      *logrus.Entry
	router   *gin.Engine
}

// New builds the router. A nil logger discards logs.
func New(ex *explorer.Explorer, cfg Config, log *logrus.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	if cfg.UploadsPerMinute <= 0 {
		cfg.UploadsPerMinute = DefaultConfig().UploadsPerMinute
	}
	if cfg.DatasetTTL <= 0 {
		cfg.DatasetTTL = DefaultConfig().DatasetTTL
	}
	s := &Server{
		cfg:      cfg,
		explorer: ex,
		datasets: cache.New(cfg.DatasetTTL, cfg.DatasetTTL*2),
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.UploadsPerMinute)/60.0), cfg.UploadsPerMinute),
		log:      log.WithField("component", "server"),
	}
	metrics.InitRegistry()
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/datasets", s.uploadLimit(), s.upload)
	ds := r.Group("/datasets/:id", s.dataset())
	ds.GET("", s.describe)
	ds.GET("/preview", s.preview)
	ds.GET("/probability", s.probability)
	ds.GET("/probability.png", s.probabilityPNG)
	ds.GET("/woe", s.woe)
	ds.GET("/woe.csv", s.woeCSV)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

// uploadLimit rejects uploads beyond the configured rate with 429.
func (s *Server) uploadLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			metrics.RecordUpload("rejected")
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": fmt.Sprintf("uploads are limited to %d per minute", s.cfg.UploadsPerMinute),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		metrics.RecordUpload("rejected")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > s.cfg.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": `multipart field "file" is required`})
		return
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		metrics.RecordUpload("rejected")
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		metrics.RecordUpload("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		metrics.RecordUpload("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := s.explorer.Open(fh.Filename, blob)
	if err != nil {
		metrics.RecordUpload("invalid")
		var de *analysis.DeserializationError
		if errors.As(err, &de) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": de.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.datasets.Set(ds.ID, ds, cache.DefaultExpiration)
	metrics.RecordUpload("ok")
	c.JSON(http.StatusCreated, gin.H{
		"id":      ds.ID,
		"name":    ds.Name,
		"rows":    ds.Rows(),
		"columns": ds.Names(),
		"message": fmt.Sprintf("dataset loaded: %d rows, %d columns", ds.Rows(), len(ds.Names())),
	})
}

// dataset resolves :id to a stored frame or answers 404.
func (s *Server) dataset() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, found := s.datasets.Get(c.Param("id"))
		ds, ok := v.(*frame.Frame)
		if !found || !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
			c.Abort()
			return
		}
		c.Set("dataset", ds)
		c.Next()
	}
}

func current(c *gin.Context) *frame.Frame {
	return c.MustGet("dataset").(*frame.Frame)
}

type columnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) describe(c *gin.Context) {
	ds := current(c)
	cols := make([]columnInfo, 0, len(ds.Names()))
	for _, col := range ds.Columns() {
		cols = append(cols, columnInfo{Name: col.Name, Kind: col.Kind.String()})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      ds.ID,
		"name":    ds.Name,
		"rows":    ds.Rows(),
		"columns": cols,
		"profile": analysis.Profile(ds, analysis.DefaultProfileOptions()),
	})
}

func (s *Server) preview(c *gin.Context) {
	rows := 0
	if q := c.Query("rows"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rows must be a non-negative integer"})
			return
		}
		rows = n
	}
	c.JSON(http.StatusOK, s.explorer.Preview(current(c), c.Query("year_col"), rows))
}

func selection(c *gin.Context) (explorer.Selection, bool) {
	var sel explorer.Selection
	if err := c.ShouldBindQuery(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sel, false
	}
	return sel, true
}

func (s *Server) probability(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	res := s.explorer.Probability(current(c), sel)
	status := http.StatusOK
	if res.Table == nil {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (s *Server) probabilityPNG(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	res := s.explorer.Probability(current(c), sel)
	if res.Table == nil {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	img, err := chart.PNG(res.Table)
	if err != nil {
		s.log.WithError(err).Error("chart rendering failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) woe(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	res := s.explorer.WOE(current(c), sel)
	status := http.StatusOK
	if res.Table == nil {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (s *Server) woeCSV(c *gin.Context) {
	sel, ok := selection(c)
	if !ok {
		return
	}
	res := s.explorer.WOE(current(c), sel)
	if res.CSV == nil {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", res.CSV)
}
