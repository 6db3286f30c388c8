package products

import (
	"context"
	"fmt"
	"io"
	"time"

	"storefront/internal/domain/categories"

	"go.uber.org/zap"
)

// FileStore persists uploaded bytes and returns their public URL.
type FileStore interface {
	Store(ctx context.Context, body io.Reader, name string) (string, error)
	Delete(ctx context.Context, url string) error
}

type Upload struct {
	Type MediaType
	Name string
	Body io.Reader
}

// Service owns the catalog reads and the admin mutations. Every product or
// media mutation evicts the cached category menu.
type Service struct {
	store    Store
	tree     TreeLoader
	menu     categories.MenuInvalidator
	files    FileStore
	pageSize int
	logger   *zap.SugaredLogger
}

func NewService(store Store, tree TreeLoader, menu categories.MenuInvalidator, files FileStore, pageSize int, logger *zap.SugaredLogger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		store:    store,
		tree:     tree,
		menu:     menu,
		files:    files,
		pageSize: pageSize,
		logger:   logger,
	}
}

// GetDetail returns a product with its category path and media. Hidden
// products are only visible to privileged callers.
func (s *Service) GetDetail(ctx context.Context, id int64, privileged bool) (*Detail, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsVisible && !privileged {
		return nil, ErrNotFound
	}

	tree, err := s.tree.LoadTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	media, err := s.store.ListMedia(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	ordered := groupMedia(media)[p.ID]

	d := &Detail{
		Product:    p,
		FinalPrice: p.FinalPrice(),
		Thumbs:     pickType(ordered, MediaThumb, MaxThumbs),
		Images:     pickType(ordered, MediaImage, len(ordered)),
		Details:    pickType(ordered, MediaDetail, len(ordered)),
		Videos:     pickType(ordered, MediaVideo, len(ordered)),
	}
	if loc, err := tree.Locate(p.CategoryID); err == nil {
		d.Location = loc
	}
	return d, nil
}

func (s *Service) checkCategory(ctx context.Context, categoryID int64) error {
	tree, err := s.tree.LoadTree(ctx)
	if err != nil {
		return fmt.Errorf("load category tree: %w", err)
	}
	if _, ok := tree.Get(categoryID); !ok {
		return ErrInvalidCategory
	}
	return nil
}

// Create stores the uploads first, then writes the product and its media in
// one transaction. Uploaded files are removed again if anything fails.
func (s *Service) Create(ctx context.Context, in ProductInput, uploads []Upload) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := validateUploads(uploads, 0); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	var created *Product
	err = s.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.Create(ctx, in)
		if err != nil {
			return err
		}
		for _, m := range stored {
			if _, err := tx.CreateMedia(ctx, p.ID, m); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	if err != nil {
		s.discardFiles(stored)
		return nil, err
	}

	s.invalidate(ctx, "product_create")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "product_update")
	return p, nil
}

// Delete soft-deletes the product and its media. Files stay in storage so
// that old references keep resolving.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SoftDelete(ctx, id); err != nil {
			return err
		}
		return tx.SoftDeleteMediaByProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, "product_delete")
	return nil
}

func (s *Service) AddMedia(ctx context.Context, productID int64, uploads []Upload) ([]*Media, error) {
	if _, err := s.store.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	existing, err := s.store.ListMedia(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	if err := validateUploads(uploads, countType(existing, MediaThumb)); err != nil {
		return nil, err
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	var created []*Media
	err = s.store.WithTx(ctx, func(tx Store) error {
		for _, m := range stored {
			row, err := tx.CreateMedia(ctx, productID, m)
			if err != nil {
				return err
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		s.discardFiles(stored)
		return nil, err
	}

	s.invalidate(ctx, "media_create")
	return created, nil
}

func (s *Service) DeleteMedia(ctx context.Context, productID, mediaID int64) error {
	m, err := s.store.GetMedia(ctx, mediaID)
	if err != nil {
		return err
	}
	if m.ProductID != productID {
		return ErrMediaNotFound
	}
	if err := s.store.SoftDeleteMedia(ctx, mediaID); err != nil {
		return err
	}
	s.invalidate(ctx, "media_delete")
	return nil
}

// ReorderMedia assigns sort orders 1..n following orderedIDs, which must name
// every active media of type t on the product exactly once.
func (s *Service) ReorderMedia(ctx context.Context, productID int64, t MediaType, orderedIDs []int64) error {
	if !t.Valid() {
		return ErrInvalidMediaType
	}
	media, err := s.store.ListMedia(ctx, []int64{productID})
	if err != nil {
		return err
	}

	current := make(map[int64]struct{})
	for _, m := range media {
		if m.Type == t {
			current[m.ID] = struct{}{}
		}
	}
	if len(orderedIDs) != len(current) {
		return ErrInvalidReorder
	}
	seen := make(map[int64]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := current[id]; !ok {
			return ErrInvalidReorder
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidReorder
		}
		seen[id] = struct{}{}
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		for i, id := range orderedIDs {
			if err := tx.SetMediaSortOrder(ctx, id, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, "media_reorder")
	return nil
}

// PromoteToThumb turns an existing gallery media row into the last
// thumbnail.
func (s *Service) PromoteToThumb(ctx context.Context, productID, mediaID int64) error {
	m, err := s.store.GetMedia(ctx, mediaID)
	if err != nil {
		return err
	}
	if m.ProductID != productID || !m.IsActive {
		return ErrMediaNotFound
	}
	if m.Type == MediaThumb {
		return nil
	}
	if m.Type == MediaVideo {
		return ErrInvalidMediaType
	}

	media, err := s.store.ListMedia(ctx, []int64{productID})
	if err != nil {
		return err
	}
	thumbs := pickType(groupMedia(media)[productID], MediaThumb, len(media))
	if len(thumbs) >= MaxThumbs {
		return ErrTooManyThumbs
	}
	next := 1
	if len(thumbs) > 0 {
		next = thumbs[len(thumbs)-1].SortOrder + 1
	}

	if err := s.store.SetMediaType(ctx, mediaID, MediaThumb, next); err != nil {
		return err
	}
	s.invalidate(ctx, "media_update")
	return nil
}

func countType(media []*Media, t MediaType) int {
	n := 0
	for _, m := range media {
		if m.Type == t {
			n++
		}
	}
	return n
}

func validateUploads(uploads []Upload, existingThumbs int) error {
	thumbs := existingThumbs
	for _, u := range uploads {
		if !u.Type.Valid() {
			return ErrInvalidMediaType
		}
		if u.Type == MediaThumb {
			thumbs++
		}
	}
	if thumbs > MaxThumbs {
		return ErrTooManyThumbs
	}
	return nil
}

func (s *Service) storeUploads(ctx context.Context, uploads []Upload) ([]NewMedia, error) {
	stored := make([]NewMedia, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.files.Store(ctx, u.Body, u.Name)
		if err != nil {
			s.discardFiles(stored)
			return nil, fmt.Errorf("store %s: %w", u.Name, err)
		}
		stored = append(stored, NewMedia{Type: u.Type, FileURL: url})
	}
	return stored, nil
}

// discardFiles removes orphaned uploads in the background.
func (s *Service) discardFiles(stored []NewMedia) {
	if len(stored) == 0 {
		return
	}
	go func(items []NewMedia) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, m := range items {
			if err := s.files.Delete(ctx, m.FileURL); err != nil {
				s.logger.Warnw("failed to remove orphaned upload", "url", m.FileURL, "error", err)
			}
		}
	}(stored)
}

func (s *Service) invalidate(ctx context.Context, reason string) {
	_ = s.menu.Invalidate(ctx, reason)
}
