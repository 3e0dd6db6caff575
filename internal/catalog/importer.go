package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MelvinDY/SGM/internal/external"
	"github.com/MelvinDY/SGM/internal/logging"
	"github.com/MelvinDY/SGM/internal/models"
)

// Defaults for imported drafts; the admin edits them before publishing.
const (
	draftWeight = "0 gram"
	draftKarat  = "24K"
)

type Feed interface {
	FetchPosts(ctx context.Context) ([]external.Post, error)
}

type ProductStore interface {
	ExistsByInstagramID(ctx context.Context, postID string) (bool, error)
	Create(ctx context.Context, p *models.ProductInsert) (*models.Product, error)
}

type SyncLogger interface {
	Record(ctx context.Context, postsAdded int, status models.SyncStatus) (*models.InstagramSyncLog, error)
}

// SyncResult summarizes one import run.
type SyncResult struct {
	Fetched       int               `json:"fetched"`
	Added         int               `json:"added"`
	Existing      int               `json:"existing"`
	Uncategorized int               `json:"uncategorized"`
	Failed        int               `json:"failed"`
	Status        models.SyncStatus `json:"status"`
	Products      []models.Product  `json:"products"`
}

type Importer struct {
	feed  Feed
	store ProductStore
	logs  SyncLogger
	log   *slog.Logger
}

// NewImporter wires an importer. logs may be nil, in which case runs are not recorded.
func NewImporter(feed Feed, store ProductStore, logs SyncLogger, log *slog.Logger) *Importer {
	return &Importer{
		feed:  feed,
		store: store,
		logs:  logs,
		log:   logging.OrDiscard(log).With("component", "catalog"),
	}
}

// Preview fetches and classifies the feed without writing anything.
func (im *Importer) Preview(ctx context.Context) ([]ParsedPost, error) {
	posts, err := im.feed.FetchPosts(ctx)
	if err != nil {
		return nil, err
	}
	return ParsePosts(posts), nil
}

// Sync imports every new, categorized post as an inactive draft product.
// A feed error is recorded as a failed run and returned.
func (im *Importer) Sync(ctx context.Context) (*SyncResult, error) {
	posts, err := im.feed.FetchPosts(ctx)
	if err != nil {
		im.record(ctx, 0, models.SyncFailed)
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	res := &SyncResult{Fetched: len(posts), Products: []models.Product{}}
	for _, p := range ParsePosts(posts) {
		exists, err := im.store.ExistsByInstagramID(ctx, p.ID)
		if err != nil {
			im.log.Warn("lookup failed", "post", p.ID, "err", err)
			res.Failed++
			continue
		}
		if exists {
			res.Existing++
			continue
		}
		if p.DetectedCategory == nil {
			res.Uncategorized++
			continue
		}

		created, err := im.store.Create(ctx, draftFromPost(p))
		if err != nil {
			im.log.Warn("import failed", "post", p.ID, "err", err)
			res.Failed++
			continue
		}
		res.Added++
		res.Products = append(res.Products, *created)
	}

	res.Status = outcome(res)
	im.record(ctx, res.Added, res.Status)
	im.log.Info("instagram sync finished",
		"fetched", res.Fetched, "added", res.Added, "existing", res.Existing,
		"uncategorized", res.Uncategorized, "failed", res.Failed, "status", res.Status)
	return res, nil
}

func outcome(res *SyncResult) models.SyncStatus {
	switch {
	case res.Failed == 0:
		return models.SyncSuccess
	case res.Added == 0:
		return models.SyncFailed
	default:
		return models.SyncPartial
	}
}

func (im *Importer) record(ctx context.Context, added int, status models.SyncStatus) {
	if im.logs == nil {
		return
	}
	if _, err := im.logs.Record(ctx, added, status); err != nil {
		im.log.Warn("could not record sync log", "err", err)
	}
}

func draftFromPost(p ParsedPost) *models.ProductInsert {
	id := p.ID
	permalink := p.Permalink
	caption := p.Caption
	return &models.ProductInsert{
		Name:               p.SuggestedName,
		Category:           *p.DetectedCategory,
		Weight:             draftWeight,
		Karat:              draftKarat,
		Description:        &caption,
		ImageURL:           p.MediaURL,
		InstagramPostID:    &id,
		InstagramPermalink: &permalink,
		IsFeatured:         false,
		IsActive:           false,
	}
}
