// Package export packs generation results into a zip archive.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"photofx/internal/domain"
	"photofx/internal/imagecache"
	"photofx/pkg/zip"
)

const (
	ManifestName = "manifest.json"
	loadLimit    = 4
)

type ImageSource interface {
	Load(ctx context.Context, url string) *imagecache.Image
}

// Summary reports what went into an archive.
type Summary struct {
	Included int      `json:"included"`
	Skipped  []string `json:"skipped,omitempty"`
}

type manifestEntry struct {
	domain.GenerationJob
	File string `json:"file,omitempty"`
}

// WriteHistory archives the result image of every successful record and a
// manifest describing all records. Results that cannot be loaded are listed
// in Summary.Skipped by job id.
func WriteHistory(ctx context.Context, w io.Writer, jobs []domain.GenerationJob, images ImageSource) (Summary, error) {
	loaded := make([]*imagecache.Image, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadLimit)
	for i, job := range jobs {
		if job.Status != domain.HistorySuccess || job.ResultURL == nil {
			continue
		}
		g.Go(func() error {
			loaded[i] = images.Load(gctx, *job.ResultURL)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	var (
		summary  Summary
		assets   []zip.Asset
		manifest = make([]manifestEntry, 0, len(jobs))
	)
	for i, job := range jobs {
		entry := manifestEntry{GenerationJob: job}
		img := loaded[i]
		switch {
		case img != nil:
			entry.File = fileName(job, img.Format)
			assets = append(assets, zip.Asset{Filename: entry.File, Data: img.Data, Modified: job.CreatedAt})
			summary.Included++
		case job.Status == domain.HistorySuccess:
			summary.Skipped = append(summary.Skipped, job.JobID)
		}
		manifest = append(manifest, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Summary{}, fmt.Errorf("export: manifest: %w", err)
	}
	assets = append(assets, zip.Asset{Filename: ManifestName, Data: data, Modified: time.Now()})
	if err := zip.ArchiveAssets(w, assets); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func fileName(job domain.GenerationJob, format string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(job.Title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "generation"
	}
	return slug + "-" + job.JobID + "." + format
}
