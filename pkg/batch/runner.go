// Package batch analyzes a directory of daily QA exports in parallel, for
// reviewing a run of sessions at once.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"pbsdailyqa/internal/logger"
	"pbsdailyqa/internal/models"
	"pbsdailyqa/pkg/analysis"
	"pbsdailyqa/pkg/dosegrid"
)

const component = "batch"

// Params holds the batch configuration
type Params struct {
	// InputDir is the directory containing the exports. Files are ordered by
	// the first number in their name, then by name.
	InputDir string

	// Extensions selects the files to analyze, compared case-insensitively
	// with or without the leading dot. Empty means ".txt".
	Extensions []string

	// NumCores is the number of exports analyzed at once; values below 1
	// use all available cores
	NumCores int
}

// Outcome is the analysis of one export. Exactly one of Result and Err is set.
type Outcome struct {
	Path   string
	Result *models.AnalysisResult
	Err    error
}

// Runner analyzes every export of a directory
type Runner struct {
	params *Params
	log    logger.Logger
}

// NewRunner creates a runner. A nil log discards everything.
func NewRunner(params *Params, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Runner{params: params, log: log}
}

// Run analyzes all exports and returns their outcomes in file order. A
// failing export does not stop the others; only an unreadable directory or
// an empty selection fails the run.
func (r *Runner) Run() ([]Outcome, error) {
	files, err := r.listExports()
	if err != nil {
		return nil, err
	}

	numCores := r.params.NumCores
	if numCores < 1 {
		numCores = runtime.NumCPU()
	}

	r.log.Info(component, "batch started", map[string]interface{}{
		"dir":   r.params.InputDir,
		"files": len(files),
		"cores": numCores,
	})

	outcomes := make([]Outcome, len(files))
	analyzer := analysis.NewAnalyzer(r.log)

	type processingResult struct {
		idx     int
		outcome Outcome
	}
	jobs := make(chan int)
	resultChan := make(chan processingResult)

	for w := 0; w < numCores; w++ {
		go func() {
			for idx := range jobs {
				resultChan <- processingResult{idx: idx, outcome: analyzeFile(analyzer, files[idx])}
			}
		}()
	}

	go func() {
		for i := range files {
			jobs <- i
		}
		close(jobs)
	}()

	failed := 0
	for completed := 0; completed < len(files); completed++ {
		res := <-resultChan
		outcomes[res.idx] = res.outcome
		if res.outcome.Err != nil {
			failed++
			r.log.Warning(component, "export failed", map[string]interface{}{
				"path":  res.outcome.Path,
				"error": res.outcome.Err.Error(),
			})
		}
		r.log.Debug(component, "export done", map[string]interface{}{
			"path":     res.outcome.Path,
			"progress": float64(completed+1) / float64(len(files)) * 100,
		})
	}

	r.log.Info(component, "batch complete", map[string]interface{}{"files": len(files), "failed": failed})
	return outcomes, nil
}

func analyzeFile(a *analysis.Analyzer, path string) Outcome {
	grid, err := dosegrid.ParseFile(path)
	if err != nil {
		return Outcome{Path: path, Err: err}
	}
	result, err := a.Analyze(grid)
	if err != nil {
		return Outcome{Path: path, Err: err}
	}
	return Outcome{Path: path, Result: result}
}

func (r *Runner) listExports() ([]string, error) {
	entries, err := os.ReadDir(r.params.InputDir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	exts := normalizeExtensions(r.params.Extensions)

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("batch: no %s exports found in %s", strings.Join(exts, "/"), r.params.InputDir)
	}

	// Session exports are numbered; order by that number so 2 precedes 10
	sort.Slice(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(r.params.InputDir, n)
	}
	return paths, nil
}

// normalizeExtensions lower-cases extensions and adds the missing dot;
// empty means ".txt"
func normalizeExtensions(extensions []string) []string {
	var exts []string
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		exts = []string{".txt"}
	}
	return exts
}

var numberPattern = regexp.MustCompile(`\d+`)

// extractNumber returns the first number in a file name, or -1
func extractNumber(filename string) int {
	m := numberPattern.FindString(filename)
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return n
}
