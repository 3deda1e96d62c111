package ui

import (
	"bytes"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"depositscope/app"
	"depositscope/internal/artifact"
	"depositscope/internal/errors"
	"depositscope/internal/metrics"
)

// Server is the read-only dashboard over a trained artifact store. It
// never writes artifacts; a missing one degrades the page, a corrupt
// one fails it.
type Server struct {
	router      *gin.Engine
	templates   *template.Template
	store       *artifact.Store
	predictions *app.PredictionService
	reporting   *app.ReportingService
	metricsOn   bool
}

// NewServer wires the dashboard routes over an artifact store.
func NewServer(store *artifact.Store, metricsEnabled bool) (*Server, error) {
	s := &Server{
		router:      gin.New(),
		store:       store,
		predictions: app.NewPredictionService(store),
		reporting:   app.NewReportingService(store),
		metricsOn:   metricsEnabled,
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	templatesFS, err := fs.Sub(assets, "templates")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedded templates")
	}
	files, err := fs.Glob(templatesFS, "*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list embedded templates")
	}
	root := template.New("").Funcs(funcMap())
	for _, file := range files {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %s", file)
		}
		if _, err := root.New(file).Parse(string(content)); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", file)
		}
	}
	return root, nil
}

// setupMiddleware configures Gin middleware and static assets.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	if s.metricsOn {
		metrics.Init()
		s.router.Use(metrics.Middleware())
	}

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		log.Printf("[Static] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the dashboard pages and their data endpoints.
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/eda", s.handleEDA)
	s.router.GET("/models", s.handleModels)
	s.router.GET("/predictions", s.handlePredictions)
	s.router.POST("/predictions", s.handlePredictions)
	s.router.GET("/insights", s.handleInsights)
	s.router.GET("/geographic", s.handleGeographic)
	s.router.GET("/interpretability", s.handleInterpretability)
	s.router.GET("/clustering", s.handleClustering)
	s.router.GET("/downloads", s.handleDownloads)

	api := s.router.Group("/api")
	{
		api.GET("/summary", s.handleAPISummary)
		api.GET("/models", s.handleAPIModels)
		api.GET("/records", s.handleAPIRecords)
		api.POST("/predict", s.handleAPIPredict)
		api.GET("/charts/:name", s.handleChart)
	}

	dl := s.router.Group("/downloads")
	{
		dl.GET("/csv/:name", s.handleDownloadCSV)
		dl.GET("/report/:name", s.handleDownloadReport)
		dl.GET("/model/:name", s.handleDownloadModel)
		dl.GET("/figure/:name", s.handleDownloadFigure)
		dl.GET("/excel", s.handleDownloadExcel)
		dl.GET("/archive", s.handleDownloadArchive)
	}

	if s.metricsOn {
		s.router.GET("/metrics", metrics.Handler())
	}
}

// Start runs the dashboard until the listener fails.
func (s *Server) Start(addr string) error {
	log.Printf("Starting DepositScope dashboard on http://%s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// basePage carries what every page template needs: the nav state and any
// degraded-content banners collected while loading artifacts.
type basePage struct {
	Title    string
	Active   string
	Warnings []string
}

func newBasePage(title, active string) basePage {
	return basePage{Title: title, Active: active}
}

// tolerate folds one artifact error into the page. A missing artifact
// becomes a warning banner and the page renders without that section;
// anything else aborts the render.
func tolerate(page *basePage, err error, what string) bool {
	if err == nil {
		return true
	}
	if errors.IsArtifactMissing(err) {
		metrics.ArtifactLoadFailures.WithLabelValues("missing").Inc()
		page.Warnings = append(page.Warnings,
			what+" is not available yet. Run `depositscope train` to generate it.")
		return true
	}
	metrics.ArtifactLoadFailures.WithLabelValues("format").Inc()
	return false
}

// renderPage executes a page template into a buffer first, so a render
// failure turns into a clean 500 instead of a half-written response.
func (s *Server) renderPage(c *gin.Context, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[Render] Template %s: %v", name, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

type errorPage struct {
	basePage
	Message string
}

// renderError serves the error page for unreadable artifacts and other
// non-recoverable failures.
func (s *Server) renderError(c *gin.Context, err error) {
	log.Printf("[Render] %v", err)
	page := errorPage{
		basePage: newBasePage("Error", ""),
		Message:  err.Error(),
	}
	var buf bytes.Buffer
	if terr := s.templates.ExecuteTemplate(&buf, "error.html", page); terr != nil {
		log.Printf("[Render] Error template: %v", terr)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", buf.Bytes())
}
