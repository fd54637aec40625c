package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/swashbuckle/internal/content"
)

// SyncReport counts the changes a Sync applied.
type SyncReport struct {
	Upserted  int `json:"upserted"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

// Sync brings the index up to date with the content index:
//   - new posts, and posts whose checksum or source file changed, are upserted
//   - posts no longer present are deleted
func Sync(db PostIndex, idx *content.Index, logger *slog.Logger) (SyncReport, error) {
	var report SyncReport

	stamps, err := db.AllStamps()
	if err != nil {
		return report, fmt.Errorf("index: sync: %w", err)
	}

	live := make(map[string]struct{}, idx.Len())
	for _, p := range idx.All() {
		live[p.Route] = struct{}{}
		if st, ok := stamps[p.Route]; ok && st.Checksum == p.Checksum && st.SourcePath == p.SourcePath {
			report.Unchanged++
			continue
		}
		row := PostRow{
			Route:       p.Route,
			SourcePath:  p.SourcePath,
			Title:       p.Title,
			Description: p.Description,
			Excerpt:     p.Excerpt,
			Published:   p.Date,
			Checksum:    p.Checksum,
		}
		if err := db.UpsertPost(row, p.Body); err != nil {
			logger.Warn("sync: upsert failed", slog.String("route", p.Route), slog.String("error", err.Error()))
			continue
		}
		report.Upserted++
		logger.Debug("sync: indexed", slog.String("route", p.Route))
	}

	// Remove stale entries.
	for route := range stamps {
		if _, ok := live[route]; ok {
			continue
		}
		if err := db.DeletePost(route); err != nil {
			logger.Warn("sync: delete failed", slog.String("route", route), slog.String("error", err.Error()))
			continue
		}
		report.Deleted++
		logger.Debug("sync: removed stale", slog.String("route", route))
	}

	return report, nil
}
