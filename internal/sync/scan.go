package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/vault"
)

var errScanLimit = errors.New("scan limit reached")

// ScanResult lists the notes carrying the todo tag.
type ScanResult struct {
	Folder    string
	Found     []string // vault-relative link paths, sorted
	Scanned   int
	Skipped   int
	Truncated bool
	StartTime time.Time
	EndTime   time.Time
}

// Scan walks settings.IncludePath for markdown notes whose text contains the
// todo tag as a whole word. The matrix document itself and exempt paths are
// skipped, and the walk stops once MaxFiles notes have been found.
func Scan(ctx context.Context, v *vault.Vault, settings matrix.Settings, matrixPath string) (*ScanResult, error) {
	result := &ScanResult{
		Folder:    settings.IncludePath,
		StartTime: time.Now(),
	}

	err := v.Walk(settings.IncludePath, settings.Recursive, func(e vault.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, ok := e.(vault.File)
		if !ok || f.Ext != ".md" {
			return nil
		}
		if f.Path == matrixPath || settings.IsExempt(f.Path) || settings.IsExempt(f.LinkPath()) {
			result.Skipped++
			return nil
		}

		text, err := v.Read(ctx, f.Path)
		if err != nil {
			result.Skipped++
			return nil
		}
		result.Scanned++
		if !vault.HasTag(text, settings.TodoTag) {
			return nil
		}

		result.Found = append(result.Found, f.LinkPath())
		if settings.MaxFiles > 0 && len(result.Found) >= settings.MaxFiles {
			result.Truncated = true
			return errScanLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errScanLimit) {
		return nil, fmt.Errorf("scan %q: %w", settings.IncludePath, err)
	}

	sort.Strings(result.Found)
	result.EndTime = time.Now()
	return result, nil
}

// String returns a human-readable summary of the scan
func (r *ScanResult) String() string {
	folder := r.Folder
	if folder == "" {
		folder = "vault root"
	}
	limit := ""
	if r.Truncated {
		limit = ", limit reached"
	}
	return fmt.Sprintf(
		"Scan of %s: %d tagged notes in %d scanned, %d skipped%s (took %v)",
		folder,
		len(r.Found),
		r.Scanned,
		r.Skipped,
		limit,
		r.EndTime.Sub(r.StartTime).Round(time.Millisecond),
	)
}
