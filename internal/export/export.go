// Package export renders the task list as JSON, CSV or PDF.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskflow/internal/service"
)

// Formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Formats lists the supported formats.
var Formats = []string{FormatJSON, FormatCSV, FormatPDF}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"id", "title", "description", "status", "priority", "created_at"}

// Exporter renders the session's current task list.
type Exporter struct {
	svc service.Service
	now func() time.Time
}

// NewExporter creates an exporter over a repository.
func NewExporter(svc service.Service) *Exporter {
	return &Exporter{svc: svc, now: time.Now}
}

// Export lists the tasks and renders them in the given format.
func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	tasks, err := e.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	return Render(tasks, format, e.now())
}

// Render renders tasks in the given format. generated is printed in the
// PDF title block.
func Render(tasks []service.Task, format string, generated time.Time) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		if tasks == nil {
			tasks = []service.Task{}
		}
		return json.MarshalIndent(tasks, "", "  ")
	case FormatCSV:
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write(CSVHeader)
		for _, t := range tasks {
			_ = w.Write([]string{t.ID, t.Title, t.Description, t.Status.String(), t.Priority.String(), t.CreatedAt.UTC().Format(time.RFC3339)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case FormatPDF:
		return renderPDF(tasks, generated)
	default:
		return nil, service.Validation("export", fmt.Errorf("unknown format %s", format))
	}
}

func renderPDF(tasks []service.Task, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("TaskFlow tasks", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "TaskFlow")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("%d tasks, generated %s", len(tasks), generated.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	for i, t := range tasks {
		pdf.SetFont("Arial", "B", 10)
		line := fmt.Sprintf("%d. [%s] %s (%s)", i+1, t.Status.Label(), t.Title, t.Priority)
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		if desc := strings.TrimSpace(t.Description); desc != "" {
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(desc), "0", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatFromPath guesses the format from a file extension. Unknown
// extensions give "".
func FormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range Formats {
		if ext == f {
			return f
		}
	}
	return ""
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}
