package products

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/categories"
)

// memStore mirrors the repository's SQL predicates in memory.
type memStore struct {
	products  map[int64]*Product
	media     map[int64]*Media
	nextID    int64
	failWrite error
}

func newMemStore() *memStore {
	return &memStore{products: map[int64]*Product{}, media: map[int64]*Media{}, nextID: 1000}
}

func (m *memStore) add(p *Product) *Product {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(p.ID) * time.Minute)
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addMedia(md *Media) {
	m.media[md.ID] = md
}

func (m *memStore) WithTx(_ context.Context, fn func(s Store) error) error {
	return fn(m)
}

func (m *memStore) matches(f Filter, p *Product) bool {
	if p.DeletedAt != nil {
		return false
	}
	if !f.IncludeHidden && !p.IsVisible {
		return false
	}
	if f.CategoryIDs != nil && !slices.Contains(f.CategoryIDs, p.CategoryID) {
		return false
	}
	if f.Search != nil {
		byName := strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search.NameContains))
		byCategory := slices.Contains(f.Search.CategoryIDs, p.CategoryID)
		if !byName && !byCategory {
			return false
		}
	}
	return true
}

func (m *memStore) filtered(f Filter) []*Product {
	var out []*Product
	for _, p := range m.products {
		if m.matches(f, p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}

func (m *memStore) Count(_ context.Context, f Filter) (int, error) {
	return len(m.filtered(f)), nil
}

func (m *memStore) List(_ context.Context, f Filter, limit, offset int) ([]*Product, error) {
	all := m.filtered(f)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (m *memStore) DistinctCategoryIDs(context.Context) ([]int64, error) {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, p := range m.products {
		if p.DeletedAt != nil {
			continue
		}
		if _, ok := seen[p.CategoryID]; !ok {
			seen[p.CategoryID] = struct{}{}
			ids = append(ids, p.CategoryID)
		}
	}
	return ids, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok || p.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *memStore) Create(_ context.Context, in ProductInput) (*Product, error) {
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	m.nextID++
	p := &Product{ID: m.nextID, CategoryID: in.CategoryID, Name: in.Name, Description: in.Description,
		Price: in.Price, DiscountRate: in.DiscountRate, IsVisible: in.IsVisible}
	return m.add(p), nil
}

func (m *memStore) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.CategoryID, p.Name, p.Price, p.DiscountRate, p.IsVisible = in.CategoryID, in.Name, in.Price, in.DiscountRate, in.IsVisible
	return p, nil
}

func (m *memStore) SoftDelete(ctx context.Context, id int64) error {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (m *memStore) ListMedia(_ context.Context, productIDs []int64) ([]*Media, error) {
	var out []*Media
	for _, md := range m.media {
		if slices.Contains(productIDs, md.ProductID) && md.IsActive && md.DeletedAt == nil {
			out = append(out, md)
		}
	}
	// map order; the service sorts
	return out, nil
}

func (m *memStore) GetMedia(_ context.Context, id int64) (*Media, error) {
	md, ok := m.media[id]
	if !ok || md.DeletedAt != nil {
		return nil, ErrMediaNotFound
	}
	return md, nil
}

func (m *memStore) CreateMedia(_ context.Context, productID int64, in NewMedia) (*Media, error) {
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	m.nextID++
	md := &Media{ID: m.nextID, ProductID: productID, Type: in.Type, FileURL: in.FileURL, SortOrder: len(m.media) + 1, IsActive: true}
	m.media[md.ID] = md
	return md, nil
}

func (m *memStore) SoftDeleteMedia(ctx context.Context, id int64) error {
	md, err := m.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	md.DeletedAt, md.IsActive = &now, false
	return nil
}

func (m *memStore) SoftDeleteMediaByProduct(_ context.Context, productID int64) error {
	now := time.Now()
	for _, md := range m.media {
		if md.ProductID == productID && md.DeletedAt == nil {
			md.DeletedAt, md.IsActive = &now, false
		}
	}
	return nil
}

func (m *memStore) SetMediaSortOrder(_ context.Context, id int64, sortOrder int) error {
	m.media[id].SortOrder = sortOrder
	return nil
}

func (m *memStore) SetMediaType(_ context.Context, id int64, t MediaType, sortOrder int) error {
	m.media[id].Type, m.media[id].SortOrder = t, sortOrder
	return nil
}

type staticTree struct{ rows []*categories.Category }

func (s staticTree) LoadTree(context.Context) (*categories.Tree, error) {
	return categories.NewTree(s.rows), nil
}

// staticTreeWith builds a flat tree of root categories with the given ids.
func staticTreeWith(ids ...int64) staticTree {
	var rows []*categories.Category
	for _, id := range ids {
		rows = append(rows, &categories.Category{ID: id, Name: "c", IsActive: true})
	}
	return staticTree{rows: rows}
}

type recordingMenu struct{ reasons []string }

func (r *recordingMenu) Invalidate(_ context.Context, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

type memFiles struct {
	mu      sync.Mutex
	stored  []string
	deleted chan string
	failOn  string
}

func newMemFiles() *memFiles {
	return &memFiles{deleted: make(chan string, 16)}
}

func (f *memFiles) Store(_ context.Context, body io.Reader, name string) (string, error) {
	if name == f.failOn {
		return "", errors.New("storage unavailable")
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://files.test/" + name
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *memFiles) Delete(_ context.Context, url string) error {
	f.deleted <- url
	return nil
}
