// Package devserver simulates the import service's REST API in memory so
// the client can be run and tested without the real backend.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
)

// Config shapes the simulated backend
type Config struct {
	// Folders with at most this many images import before the response
	ImmediateThreshold int
	// Images handled per status poll of a deferred job
	StepPerPoll int
	// Every FailEvery-th image of a folder fails to import; 0 disables
	FailEvery int
	// Upper bound of images in a simulated folder
	MaxFolderImages int
	// Storage provider recorded on imported images
	Provider string
	// Sources accepted in POST /import/{source}
	Sources []string
}

// DefaultConfig returns the settings used by `imgport devserver`
func DefaultConfig() Config {
	return Config{
		ImmediateThreshold: 3,
		StepPerPoll:        4,
		FailEvery:          9,
		MaxFolderImages:    60,
		Provider:           "aws",
		Sources:            []string{"google-drive"},
	}
}

// Server is the simulated import service
type Server struct {
	cfg     Config
	catalog *Catalog
	jobs    *Jobs
	engine  *gin.Engine
	logger  *slog.Logger
}

// New creates a server with an empty catalog
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.StepPerPoll <= 0 {
		cfg.StepPerPoll = defaults.StepPerPoll
	}
	if cfg.MaxFolderImages <= 0 {
		cfg.MaxFolderImages = defaults.MaxFolderImages
	}
	if cfg.Provider == "" {
		cfg.Provider = defaults.Provider
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaults.Sources
	}

	s := &Server{
		cfg:     cfg,
		catalog: NewCatalog(cfg.Provider),
		jobs:    NewJobs(),
		logger:  logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.POST("/import/:source", s.createImport)
	api.GET("/import/status/:id", s.importStatus)
	api.GET("/images", s.listImages)
	api.GET("/images/:id", s.getImage)
	api.DELETE("/images/:id", s.deleteImage)
	api.GET("/stats", s.stats)

	return router
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown dev server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"requestID", c.GetHeader("X-Request-ID"),
			"duration", time.Since(start),
		)
	}
}

type importRequest struct {
	FolderURL string `json:"folder_url"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "import-service"})
}

func (s *Server) createImport(c *gin.Context) {
	if !s.acceptsSource(c.Param("source")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown import source"})
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FolderURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_url is required"})
		return
	}

	folderID := extractFolderID(req.FolderURL)
	files := listFolder(folderID, s.cfg.MaxFolderImages)
	if len(files) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No images found in the folder"})
		return
	}

	if len(files) <= s.cfg.ImmediateThreshold {
		imported := make([]*Image, 0, len(files))
		failed := make([]string, 0)
		for _, f := range files {
			img, err := s.importFile(f)
			if err != nil {
				failed = append(failed, f.name)
				continue
			}
			imported = append(imported, img)
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     fmt.Sprintf("Imported %d of %d images", len(imported), len(files)),
			"total_found": len(files),
			"imported":    imported,
			"failed":      failed,
		})
		return
	}

	job := s.jobs.Create(files)
	s.logger.Info("import job created", "jobID", job.ID, "folderID", folderID, "total", job.Total)
	c.JSON(http.StatusAccepted, gin.H{
		"job_id":       job.ID,
		"message":      fmt.Sprintf("Import job started for %d images", len(files)),
		"total_images": len(files),
	})
}

func (s *Server) importStatus(c *gin.Context) {
	job, ok := s.jobs.Advance(c.Param("id"), s.cfg.StepPerPoll, func(f sourceFile) error {
		_, err := s.importFile(f)
		return err
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// importFile stores one image, failing every FailEvery-th file and duplicates
func (s *Server) importFile(f sourceFile) (*Image, error) {
	if s.cfg.FailEvery > 0 {
		if (f.index+1)%s.cfg.FailEvery == 0 {
			return nil, fmt.Errorf("download failed: %s", f.name)
		}
	}
	return s.catalog.Add(f)
}

func (s *Server) listImages(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if err != nil || perPage < 1 {
		perPage = 50
	}

	images, total, totalPages := s.catalog.Page(page, perPage)
	c.JSON(http.StatusOK, gin.H{
		"images":      images,
		"total":       total,
		"page":        page,
		"per_page":    perPage,
		"total_pages": totalPages,
	})
}

func (s *Server) getImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	img, ok := s.catalog.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	c.JSON(http.StatusOK, img)
}

func (s *Server) deleteImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || !s.catalog.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

func (s *Server) stats(c *gin.Context) {
	count, totalBytes, providers := s.catalog.Stats()
	body := gin.H{
		"total_images":     count,
		"total_size_bytes": totalBytes,
		"total_size_mb":    math.Round(float64(totalBytes)/(1024*1024)*100) / 100,
	}
	body[s.cfg.Provider+"_images"] = 0
	for provider, n := range providers {
		body[provider+"_images"] = n
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) acceptsSource(source string) bool {
	return slices.Contains(s.cfg.Sources, source)
}
