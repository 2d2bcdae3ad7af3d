package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pdfx "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/tools"
)

// maxPDFTextChars bounds how much extracted PDF text lands in the
// observation.
const maxPDFTextChars = 8000

// CapturePDFTool renders the current page to a PDF artifact, verifies the
// result, and optionally extracts its text. Chromium only renders PDFs in
// headless mode.
type CapturePDFTool struct {
	manager   *Manager
	outputDir string
}

// NewCapturePDFTool creates a new PDF capture tool. PDFs land in
// outputDir; an execution context can override it per run via the
// "artifact_dir" value, and the OS temp directory is the fallback when
// neither names one.
func NewCapturePDFTool(manager *Manager, outputDir string) *CapturePDFTool {
	return &CapturePDFTool{
		manager:   manager,
		outputDir: outputDir,
	}
}

// Name returns the tool name.
func (t *CapturePDFTool) Name() string {
	return "capture_pdf"
}

// Description returns the tool description.
func (t *CapturePDFTool) Description() string {
	return "Render the current page to a PDF file and extract its text. The PDF is validated after capture and the observation reports its page count and location."
}

// Schema returns the tool's JSON schema.
func (t *CapturePDFTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Output file name without directories (e.g., 'pricing.pdf'). Default: derived from the capture time",
			},
			"extract_text": map[string]interface{}{
				"type":        "boolean",
				"description": "Include the PDF's plain text in the observation. Default: true",
			},
			"max_pages": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of pages to extract text from. Default: 20",
			},
		},
		nil,
	)
}

// Execute captures the page as a PDF.
func (t *CapturePDFTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	filename, _ := tools.StringField(input, "filename")
	if filename == "" {
		filename = fmt.Sprintf("page-%s.pdf", time.Now().Format("20060102-150405"))
	}
	if filepath.Base(filename) != filename {
		return nil, fmt.Errorf("filename must not contain path separators")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		filename += ".pdf"
	}

	extractText := tools.BoolField(input, "extract_text", true)
	maxPages := tools.IntField(input, "max_pages", 20)
	if maxPages < 1 || maxPages > 100 {
		return nil, fmt.Errorf("max_pages must be between 1 and 100")
	}

	dir := t.resolveOutputDir(exec)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, filename)

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	size, err := tab.PDF(path)
	if err != nil {
		return nil, err
	}

	// Chromium occasionally emits PDFs downstream readers reject, so
	// verify before reporting success
	if err := api.ValidateFile(path, nil); err != nil {
		return &engine.ToolResult{
			OK:          false,
			Observation: fmt.Sprintf("captured PDF failed validation: %v", err),
			Extra: map[string]any{
				"path": path,
			},
		}, nil
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %w", err)
	}

	var text string
	if extractText {
		text, err = extractPDFText(path, maxPages)
		if err != nil {
			// Keep the capture; some renderings carry no extractable text
			text = fmt.Sprintf("(text extraction failed: %v)", err)
		}
	}

	observation := fmt.Sprintf(`Captured PDF of %s

Capture Details:
- File: %s
- Pages: %d
- Size: %d bytes`,
		tab.CurrentURL,
		path,
		pageCount,
		size,
	)
	if extractText && text != "" {
		observation += "\n\n---\n\n" + text
	}

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
		Extra: map[string]any{
			"path":  path,
			"pages": pageCount,
			"bytes": size,
		},
	}, nil
}

// resolveOutputDir picks the directory PDFs are written to.
func (t *CapturePDFTool) resolveOutputDir(exec engine.ExecContext) string {
	if dir := exec.Values["artifact_dir"]; dir != "" {
		return dir
	}
	if t.outputDir != "" {
		return t.outputDir
	}
	return os.TempDir()
}

// extractPDFText pulls plain text from up to maxPages pages of the PDF.
func extractPDFText(path string, maxPages int) (string, error) {
	f, r, err := pdfx.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	if totalPages > maxPages {
		totalPages = maxPages
	}

	var out strings.Builder
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		out.WriteString(content)
		out.WriteString("\n\n")
		if out.Len() > maxPDFTextChars {
			break
		}
	}

	text := strings.TrimSpace(out.String())
	if len(text) > maxPDFTextChars {
		text = text[:maxPDFTextChars] + "..."
	}
	return text, nil
}

// Capabilities describes the tool for telemetry.
func (t *CapturePDFTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": false,
		"uses_llm":     false,
	}
}
