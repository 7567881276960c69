package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// PaperHeader carries the metadata printed above the question blocks.
type PaperHeader struct {
	InstitutionName string
	ProgramName     string
	CourseName      string
	CourseCode      string
	AssessmentType  string
	ExamDate        time.Time
	Year            string
	Semester        string
	AcademicYear    string
	Instructions    []string
}

// DefaultInstructions is printed when the caller supplies none.
var DefaultInstructions = []string{
	"Answer all questions.",
	"All questions carry marks as specified.",
	"Use of calculators is permitted.",
}

const maxImageWidthMM = 130.0

var errRenderTimeout = errors.New("render timed out")

// RendererService turns a selection into a paginated A4 PDF. Rendering is
// the heavyweight stage of the pipeline, so concurrent renders are bounded
// by a fixed-size worker pool and each render runs under a timeout.
type RendererService struct {
	outputDir string
	sem       chan struct{}
	timeout   time.Duration
	render    func(PaperHeader, *SelectionResult, string) error
}

func NewRendererService(outputDir string, workers int, timeout time.Duration) *RendererService {
	if workers < 1 {
		workers = 1
	}
	return &RendererService{
		outputDir: outputDir,
		sem:       make(chan struct{}, workers),
		timeout:   timeout,
		render:    renderPDF,
	}
}

// Render produces the PDF and returns its path. The filename is derived only
// from internal identifiers, never from caller-supplied free text. A failed
// or timed-out render leaves no partial file behind; a timeout is retried
// once with a fresh engine instance.
func (s *RendererService) Render(header PaperHeader, sel *SelectionResult) (string, error) {
	if sel == nil || len(sel.Questions) == 0 {
		return "", &ValidationError{Field: "questions", Detail: "nothing to render"}
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", &RenderError{Detail: "could not create output directory", Err: err}
	}

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	path, err := s.renderWithTimeout(header, sel)
	if err != nil && errors.Is(err, errRenderTimeout) {
		log.Printf("Render of %s timed out, retrying with a fresh engine instance", header.CourseCode)
		path, err = s.renderWithTimeout(header, sel)
	}
	if err != nil {
		if errors.Is(err, errRenderTimeout) {
			return "", &RenderError{Detail: "document engine timed out", Err: err}
		}
		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			return "", err
		}
		return "", &RenderError{Detail: "document engine failed", Err: err}
	}
	return path, nil
}

type renderOutcome struct {
	err error
}

func (s *RendererService) renderWithTimeout(header PaperHeader, sel *SelectionResult) (string, error) {
	tmpPath := filepath.Join(s.outputDir, ".render_"+uuid.NewString()+".tmp")

	done := make(chan renderOutcome, 1)
	go func() {
		var out renderOutcome
		defer func() {
			if r := recover(); r != nil {
				out.err = &RenderError{Detail: fmt.Sprintf("document engine panicked: %v", r)}
			}
			done <- out
		}()
		out.err = s.render(header, sel, tmpPath)
	}()

	select {
	case out := <-done:
		if out.err != nil {
			os.Remove(tmpPath)
			return "", out.err
		}
		finalPath := filepath.Join(s.outputDir, paperFileName(header.CourseCode, header.AssessmentType))
		if err := os.Rename(tmpPath, finalPath); err != nil {
			os.Remove(tmpPath)
			return "", &RenderError{Detail: "could not finalize document", Err: err}
		}
		return finalPath, nil

	case <-time.After(s.timeout):
		// The engine cannot be interrupted mid-render; clean up its output
		// whenever it eventually finishes.
		go func() {
			<-done
			os.Remove(tmpPath)
		}()
		return "", errRenderTimeout
	}
}

// paperFileName builds QP_<courseCode>_<assessmentType>_<timestamp>-<suffix>.pdf
// from sanitized internal identifiers. The random suffix keeps two renders of
// the same course and assessment inside one millisecond from colliding on the
// final path.
func paperFileName(courseCode, assessmentType string) string {
	return fmt.Sprintf("QP_%s_%s_%d-%s.pdf",
		sanitizeFileToken(courseCode),
		sanitizeFileToken(assessmentType),
		time.Now().UnixMilli(),
		uuid.NewString()[:8])
}

func sanitizeFileToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "NA"
	}
	return b.String()
}

func renderPDF(header PaperHeader, sel *SelectionResult, path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 40

	// Header block
	pdf.SetFont("Times", "B", 16)
	pdf.CellFormat(contentWidth, 8, header.InstitutionName, "", 1, "C", false, 0, "")
	if header.ProgramName != "" {
		pdf.SetFont("Times", "", 12)
		pdf.CellFormat(contentWidth, 6, header.ProgramName, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("%s Examination - %s", header.AssessmentType, header.AcademicYear), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Year: %s, Semester: %s", header.Year, header.Semester), "", 1, "C", false, 0, "")

	pdf.Ln(2)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), pageWidth-20, pdf.GetY())
	pdf.Ln(4)

	// Details table
	half := contentWidth / 2
	pdf.SetFont("Times", "B", 11)
	pdf.CellFormat(half, 6, "Course Name: "+header.CourseName, "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, "Course Code: "+header.CourseCode, "", 1, "L", false, 0, "")
	pdf.CellFormat(half, 6, "Date: "+header.ExamDate.Format("02-01-2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, "Time: 3 Hours", "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Max. Marks: %d", sel.TotalMarks()), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Instructions
	instructions := header.Instructions
	if len(instructions) == 0 {
		instructions = DefaultInstructions
	}
	pdf.SetFont("Times", "B", 11)
	pdf.CellFormat(contentWidth, 6, "Instructions:", "", 1, "L", false, 0, "")
	pdf.SetFont("Times", "", 11)
	for i, instruction := range instructions {
		pdf.CellFormat(contentWidth, 5, fmt.Sprintf("%d. %s", i+1, instruction), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(20, pdf.GetY(), pageWidth-20, pdf.GetY())
	pdf.Ln(4)

	// Question blocks
	for i, q := range sel.Questions {
		pdf.SetFont("Times", "B", 11)
		pdf.CellFormat(contentWidth-30, 6, fmt.Sprintf("%d.", i+1), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("[%d Marks]", q.Marks), "", 1, "R", false, 0, "")

		pdf.SetFont("Times", "", 11)
		pdf.MultiCell(contentWidth, 5, q.QuestionText, "", "L", false)

		if q.ImagePath != "" {
			if err := embedImage(pdf, q.ImagePath); err != nil {
				return &RenderError{Detail: "could not embed image " + q.ImagePath, Err: err}
			}
		}

		pdf.SetFont("Times", "I", 8)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(contentWidth, 4, fmt.Sprintf("CO: %s | Bloom's: %s | Difficulty: %s | Unit: %s",
			q.CO, q.BloomsLevel, q.DifficultyLevel, q.Unit), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	// Closing marker
	pdf.Ln(8)
	pdf.SetFont("Times", "", 11)
	pdf.CellFormat(contentWidth, 6, "*** END OF QUESTION PAPER ***", "", 1, "C", false, 0, "")

	if pdf.Err() {
		return &RenderError{Detail: "document engine error", Err: pdf.Error()}
	}
	return pdf.OutputFileAndClose(path)
}

// embedImage draws an image scaled down to the maximum display width.
func embedImage(pdf *gofpdf.Fpdf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	opts := gofpdf.ImageOptions{ImageType: "", ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if pdf.Err() {
		return pdf.Error()
	}

	width := info.Width()
	if width > maxImageWidthMM {
		width = maxImageWidthMM
	}
	pdf.ImageOptions(path, pdf.GetX(), pdf.GetY(), width, 0, true, opts, 0, "")
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}
