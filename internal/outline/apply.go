package outline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// PreexistingOutlineError means the target document already carries
// bookmarks. The tool only writes into outline-free copies; merging
// with an existing tree is out of scope.
type PreexistingOutlineError struct {
	Path string
}

func (e *PreexistingOutlineError) Error() string {
	return fmt.Sprintf("%s already has an outline; refusing to write bookmarks", e.Path)
}

// DocumentBusyError means another apply already holds the target.
type DocumentBusyError struct {
	Path string
}

func (e *DocumentBusyError) Error() string {
	return fmt.Sprintf("%s: apply already in progress", e.Path)
}

// Applier writes bookmark trees into PDFs. One Applier serializes
// concurrent applies per output path; a second caller gets
// DocumentBusyError instead of queueing.
type Applier struct {
	Log *slog.Logger

	mu   sync.Mutex
	held map[string]bool
}

// recoverPanic converts a panic into an error. pdfcpu's repair paths
// can panic on structurally broken documents; containing the panic
// here keeps one corrupt file from taking down the worker process.
func recoverPanic(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%s: panic: %v", op, r)
	}
}

// Preflight validates the document and returns its page count. It
// fails with PreexistingOutlineError when the catalog carries an
// Outlines entry.
func (a *Applier) Preflight(path string) (pageCount int, err error) {
	defer recoverPanic("read pdf", &err)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	catalog, err := pdfCtx.Catalog()
	if err != nil {
		return 0, fmt.Errorf("read pdf catalog: %w", err)
	}
	if _, found := catalog.Find("Outlines"); found {
		return 0, &PreexistingOutlineError{Path: path}
	}
	return pdfCtx.PageCount, nil
}

// Apply writes the bookmark tree from inPath into a new file at
// outPath. The input file is never modified; a failed apply leaves
// outPath absent or untouched. All page bounds are checked before
// anything is written, so a single bad target aborts the whole run.
func (a *Applier) Apply(ctx context.Context, root *Node, inPath, outPath string) (err error) {
	defer recoverPanic("apply bookmarks", &err)

	key := filepath.Clean(outPath)
	if !a.acquire(key) {
		return &DocumentBusyError{Path: outPath}
	}
	defer a.release(key)

	if err := ctx.Err(); err != nil {
		return err
	}

	pageCount, err := a.Preflight(inPath)
	if err != nil {
		return err
	}
	if errs := checkBounds(root, pageCount); len(errs) > 0 {
		return errors.Join(errs...)
	}

	bms := toBookmarks(root)
	if len(bms) == 0 {
		return fmt.Errorf("no bookmarks to write")
	}

	// Write to a temp file beside the target and rename, so a failure
	// mid-write never leaves a half-bookmarked output.
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".dogear-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := api.AddBookmarksFile(inPath, tmpPath, bms, false, model.NewDefaultConfiguration()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write bookmarks: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move output into place: %w", err)
	}

	if a.Log != nil {
		a.Log.Info("bookmarks applied",
			"input", inPath,
			"output", outPath,
			"groups", len(root.Children),
			"bookmarks", len(root.Leaves()))
	}
	return nil
}

func (a *Applier) acquire(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil {
		a.held = make(map[string]bool)
	}
	if a.held[key] {
		return false
	}
	a.held[key] = true
	return true
}

func (a *Applier) release(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.held, key)
}

// checkBounds reports every leaf whose target page does not exist.
func checkBounds(root *Node, pageCount int) []error {
	var errs []error
	for _, group := range root.Children {
		for _, leaf := range group.Children {
			if leaf.TargetPage < 0 || leaf.TargetPage >= pageCount {
				errs = append(errs, &toc.PageOutOfRangeError{
					GroupName: group.Title,
					Label:     leaf.Title,
					PageIndex: leaf.TargetPage,
					PageCount: pageCount,
				})
			}
		}
	}
	return errs
}

// toBookmarks converts the two-level tree into pdfcpu's bookmark
// model. pdfcpu pages are 1-based.
func toBookmarks(root *Node) []pdfcpu.Bookmark {
	bms := make([]pdfcpu.Bookmark, 0, len(root.Children))
	for _, group := range root.Children {
		bm := pdfcpu.Bookmark{
			Title:    group.Title,
			PageFrom: group.TargetPage + 1,
		}
		for _, leaf := range group.Children {
			bm.Kids = append(bm.Kids, pdfcpu.Bookmark{
				Title:    leaf.Title,
				PageFrom: leaf.TargetPage + 1,
			})
		}
		bms = append(bms, bm)
	}
	return bms
}

var numberedPDF = regexp.MustCompile(`^(\d+)\.pdf$`)

// Merge combines the numbered PDFs in dir (1.pdf, 2.pdf, ...) into a
// single document at outPath, in numeric order.
func Merge(ctx context.Context, dir, outPath string) (err error) {
	defer recoverPanic("merge pdfs", &err)

	if err := ctx.Err(); err != nil {
		return err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read merge dir: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		m := numberedPDF.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, numbered{n: n, path: filepath.Join(dir, entry.Name())})
	}
	if len(files) == 0 {
		return fmt.Errorf("no numbered PDFs in %s", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	if err := api.MergeCreateFile(paths, outPath, false, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("merge pdfs: %w", err)
	}
	return nil
}
