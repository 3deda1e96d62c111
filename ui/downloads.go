package ui

import (
	"archive/zip"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"depositscope/adapters/regressors"
	"depositscope/adapters/tabular"
	"depositscope/internal/artifact"
)

// Artifact names that download as CSV tables.
var csvArtifacts = map[string]struct{}{
	artifact.NameCleanedData:        {},
	artifact.NameFeaturedData:       {},
	artifact.NameModelComparison:    {},
	artifact.NameClusterAssignments: {},
}

// Artifact names that download as report files.
var reportArtifacts = map[string]struct{}{
	artifact.NameProjectSummary:     {},
	artifact.NameInsightsNarrative:  {},
	artifact.NameClusteringReport:   {},
	artifact.NameFeatureImportance:  {},
	artifact.NameEncoder:            {},
}

type downloadItem struct {
	Label   string
	Href    string
	Size    string
	Present bool
}

type downloadsPage struct {
	basePage
	Datasets []downloadItem
	Reports  []downloadItem
	Models   []downloadItem
	Figures  []downloadItem
	HasAny   bool
}

func (s *Server) handleDownloads(c *gin.Context) {
	page := downloadsPage{basePage: newBasePage("Downloads", "downloads")}
	layout := s.store.Layout()

	page.Datasets = []downloadItem{
		s.fileItem("Cleaned dataset (CSV)", "/downloads/csv/"+artifact.NameCleanedData, layout.CleanedData()),
		s.fileItem("Engineered features (CSV)", "/downloads/csv/"+artifact.NameFeaturedData, layout.FeaturedData()),
		s.fileItem("Model comparison (CSV)", "/downloads/csv/"+artifact.NameModelComparison, layout.ModelComparison()),
		s.fileItem("Cluster assignments (CSV)", "/downloads/csv/"+artifact.NameClusterAssignments, layout.ClusterAssignments()),
	}
	page.Reports = []downloadItem{
		s.fileItem("Project summary (JSON)", "/downloads/report/"+artifact.NameProjectSummary, layout.ProjectSummary()),
		s.fileItem("Insights narrative (Markdown)", "/downloads/report/"+artifact.NameInsightsNarrative, layout.InsightsNarrative()),
		s.fileItem("Clustering report (JSON)", "/downloads/report/"+artifact.NameClusteringReport, layout.ClusteringReport()),
		s.fileItem("Feature importance (JSON)", "/downloads/report/"+artifact.NameFeatureImportance, layout.FeatureImportance()),
		s.fileItem("Inference encoder (JSON)", "/downloads/report/"+artifact.NameEncoder, layout.Encoder()),
	}

	models, err := s.store.AvailableModels()
	if err != nil {
		s.renderError(c, err)
		return
	}
	for _, name := range models {
		page.Models = append(page.Models,
			s.fileItem(name+" (JSON)", "/downloads/model/"+name, layout.Model(name)))
	}

	figures, err := s.store.Figures()
	if err != nil {
		s.renderError(c, err)
		return
	}
	for _, name := range figures {
		page.Figures = append(page.Figures,
			s.fileItem(name, "/downloads/figure/"+name, filepath.Join(layout.FiguresDir(), name)))
	}

	for _, items := range [][]downloadItem{page.Datasets, page.Reports, page.Models, page.Figures} {
		for _, item := range items {
			if item.Present {
				page.HasAny = true
			}
		}
	}
	if !page.HasAny {
		page.Warnings = append(page.Warnings,
			"No artifacts found. Run `depositscope train` to generate them.")
	}

	s.renderPage(c, "downloads.html", page)
}

func (s *Server) fileItem(label, href, path string) downloadItem {
	item := downloadItem{Label: label, Href: href, Size: "—"}
	if info, err := os.Stat(path); err == nil {
		item.Present = true
		item.Size = humanSize(info.Size())
	}
	return item
}

func humanSize(bytes int64) string {
	kb := float64(bytes) / 1024
	if kb >= 1024 {
		return fmt.Sprintf("%.1f MB", kb/1024)
	}
	return fmt.Sprintf("%.1f KB", kb)
}

func (s *Server) handleDownloadCSV(c *gin.Context) {
	name := c.Param("name")
	if _, ok := csvArtifacts[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown dataset " + name})
		return
	}
	path, _ := s.store.Layout().Path(name)
	s.serveFile(c, path)
}

func (s *Server) handleDownloadReport(c *gin.Context) {
	name := c.Param("name")
	if _, ok := reportArtifacts[name]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown report " + name})
		return
	}
	path, _ := s.store.Layout().Path(name)
	s.serveFile(c, path)
}

func (s *Server) handleDownloadModel(c *gin.Context) {
	name := c.Param("name")
	if _, ok := regressors.CategoryOf(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown model " + name})
		return
	}
	s.serveFile(c, s.store.Layout().Model(name))
}

func (s *Server) handleDownloadFigure(c *gin.Context) {
	name := c.Param("name")
	figures, err := s.store.Figures()
	if err != nil {
		apiError(c, err)
		return
	}
	for _, known := range figures {
		if known == name {
			s.serveFile(c, filepath.Join(s.store.Layout().FiguresDir(), name))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown figure " + name})
}

func (s *Server) serveFile(c *gin.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact file not found"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// handleDownloadExcel assembles the multi-sheet report workbook from
// whatever artifacts are present and streams it.
func (s *Server) handleDownloadExcel(c *gin.Context) {
	var data tabular.WorkbookData
	if summary, err := s.store.ProjectSummary(); err == nil {
		data.Summary = summary
	}
	if ds, err := s.store.CleanedData(); err == nil {
		data.Records = ds.Records
	}
	if comparison, err := s.store.ModelComparison(); err == nil {
		data.Comparison = comparison
	}
	if clustering, err := s.store.ClusteringReport(); err == nil {
		data.Clustering = clustering
	}
	if data.Summary == nil && len(data.Records) == 0 && len(data.Comparison.Results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no artifacts to export"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="depositscope_report.xlsx"`)
	if err := tabular.WriteWorkbook(c.Writer, data); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// handleDownloadArchive streams every present artifact as one zip, laid
// out with the on-disk directory structure.
func (s *Server) handleDownloadArchive(c *gin.Context) {
	layout := s.store.Layout()

	paths := make([]string, 0, 16)
	for _, name := range []string{
		artifact.NameCleanedData, artifact.NameFeaturedData,
		artifact.NameModelComparison, artifact.NameProjectSummary,
		artifact.NameInsightsNarrative, artifact.NameClusteringReport,
		artifact.NameClusterAssignments, artifact.NameFeatureImportance,
		artifact.NameEncoder,
	} {
		if path, ok := layout.Path(name); ok {
			paths = append(paths, path)
		}
	}
	if models, err := s.store.AvailableModels(); err == nil {
		for _, name := range models {
			paths = append(paths, layout.Model(name))
		}
	}
	if figures, err := s.store.Figures(); err == nil {
		for _, name := range figures {
			paths = append(paths, filepath.Join(layout.FiguresDir(), name))
		}
	}

	present := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			present = append(present, path)
		}
	}
	if len(present) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no artifacts to archive"})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="depositscope_artifacts.zip"`)
	zw := zip.NewWriter(c.Writer)
	for _, path := range present {
		if err := addToArchive(zw, layout.Root, path); err != nil {
			zw.Close()
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}
	if err := zw.Close(); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func addToArchive(zw *zip.Writer, root, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	w, err := zw.Create(filepath.ToSlash(rel))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
