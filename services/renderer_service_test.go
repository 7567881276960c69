package services

import (
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() PaperHeader {
	return PaperHeader{
		InstitutionName: "Test Institute of Technology",
		ProgramName:     "B.Tech",
		CourseName:      "Operating Systems",
		CourseCode:      "CS301",
		AssessmentType:  "MID-1",
		ExamDate:        time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
		Year:            "III",
		Semester:        "I",
		AcademicYear:    "2025-2026",
	}
}

func testSelection() *SelectionResult {
	return &SelectionResult{Questions: []SelectedQuestion{
		{ID: 1, QuestionText: "Explain process scheduling with an example.", Marks: 5, CO: "CO1", BloomsLevel: "Remember", DifficultyLevel: "Easy", Unit: "Unit 1"},
		{ID: 2, QuestionText: "Compare preemptive and non-preemptive scheduling.", Marks: 10, CO: "CO2", BloomsLevel: "Analyze", DifficultyLevel: "Hard", Unit: "Unit 2"},
	}}
}

func TestRenderProducesPDF(t *testing.T) {
	dir := t.TempDir()
	svc := NewRendererService(dir, 2, 10*time.Second)

	path, err := svc.Render(testHeader(), testSelection())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "rendered document should not be empty")

	name := filepath.Base(path)
	assert.Regexp(t, regexp.MustCompile(`^QP_CS301_MID-1_\d+-[0-9a-f]{8}\.pdf$`), name)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderFileNameIgnoresCallerText(t *testing.T) {
	// path separators and traversal sequences in identifiers must not
	// reach the filesystem
	assert.Equal(t, "QP_NA_Regular_", trimTimestamp(paperFileName("../../..", "Regular")))
	assert.Equal(t, "QP_CS-301_MID-1_", trimTimestamp(paperFileName("CS/-301", "MID-1")))
}

func trimTimestamp(name string) string {
	return regexp.MustCompile(`\d+-[0-9a-f]{8}\.pdf$`).ReplaceAllString(name, "")
}

func TestPaperFileNamesNeverCollide(t *testing.T) {
	// same course and assessment within one millisecond must still get
	// distinct final paths
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		name := paperFileName("CS301", "MID-1")
		assert.False(t, seen[name], "duplicate file name %s", name)
		seen[name] = true
	}
}

func TestRenderTimeoutRetriedOnce(t *testing.T) {
	dir := t.TempDir()
	svc := NewRendererService(dir, 1, 100*time.Millisecond)

	var calls int32
	svc.render = func(header PaperHeader, sel *SelectionResult, path string) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(400 * time.Millisecond)
		}
		return os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
	}

	path, err := svc.Render(testHeader(), testSelection())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a timed-out render is retried exactly once")

	_, err = os.Stat(path)
	require.NoError(t, err)

	// the abandoned first render's temp file is removed once it finishes
	assert.Eventually(t, func() bool {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			return false
		}
		return len(entries) == 1 && entries[0].Name() == filepath.Base(path)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRenderSecondTimeoutFails(t *testing.T) {
	dir := t.TempDir()
	svc := NewRendererService(dir, 1, 50*time.Millisecond)

	var calls int32
	svc.render = func(header PaperHeader, sel *SelectionResult, path string) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(250 * time.Millisecond)
		return os.WriteFile(path, []byte("late"), 0o644)
	}

	_, err := svc.Render(testHeader(), testSelection())
	require.Error(t, err)

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "no third attempt after the retry times out")

	assert.Eventually(t, func() bool {
		entries, readErr := os.ReadDir(dir)
		return readErr == nil && len(entries) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRenderEmptySelection(t *testing.T) {
	svc := NewRendererService(t.TempDir(), 1, time.Second)

	_, err := svc.Render(testHeader(), &SelectionResult{})
	require.Error(t, err)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRenderMissingImageLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewRendererService(dir, 1, 10*time.Second)

	sel := testSelection()
	sel.Questions[0].ImagePath = filepath.Join(dir, "does-not-exist.png")

	_, err := svc.Render(testHeader(), sel)
	require.Error(t, err)

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed render must not leave files behind")
}

func TestRenderDefaultInstructionsUsed(t *testing.T) {
	dir := t.TempDir()
	svc := NewRendererService(dir, 1, 10*time.Second)

	header := testHeader()
	header.Instructions = nil

	_, err := svc.Render(header, testSelection())
	require.NoError(t, err)
}
