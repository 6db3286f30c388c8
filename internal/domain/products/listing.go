package products

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"storefront/internal/domain/categories"
	"storefront/internal/params"
)

// TreeLoader supplies the active category tree used to expand filters.
type TreeLoader interface {
	LoadTree(ctx context.Context) (*categories.Tree, error)
}

// buildFilter turns a listing query into a store predicate. Category ids
// are expanded to their whole subtree.
func buildFilter(tree *categories.Tree, q ListQuery) Filter {
	f := Filter{IncludeHidden: q.IncludeHidden}

	if q.CategoryID != nil {
		f.CategoryIDs = tree.SubtreeIDs(*q.CategoryID)
	}

	if text := strings.TrimSpace(q.Search); text != "" {
		f.Search = &SearchFilter{
			NameContains: text,
			CategoryIDs:  tree.SubtreeIDs(tree.MatchName(text)...),
		}
	}
	return f
}

// ListProducts returns one page of products. The requested page is clamped
// into [1, totalPages] and totalPages is at least 1.
func (s *Service) ListProducts(ctx context.Context, q ListQuery) (*ListResult, error) {
	tree, err := s.tree.LoadTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	f := buildFilter(tree, q)

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := params.Resolve(q.Page, s.pageSize, total)

	result := &ListResult{Items: []*ListItem{}, Pagination: page}
	if total == 0 {
		return result, nil
	}

	rows, err := s.store.List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	media, err := s.store.ListMedia(ctx, ids)
	if err != nil {
		return nil, err
	}
	byProduct := groupMedia(media)

	for _, p := range rows {
		result.Items = append(result.Items, &ListItem{
			ID:           p.ID,
			CategoryID:   p.CategoryID,
			CategoryPath: tree.Breadcrumb(p.CategoryID),
			Name:         p.Name,
			Price:        p.Price,
			DiscountRate: p.DiscountRate,
			FinalPrice:   p.FinalPrice(),
			IsVisible:    p.IsVisible,
			Media:        pickListMedia(byProduct[p.ID]),
		})
	}
	return result, nil
}

// groupMedia buckets media per product, each bucket ordered by sort order
// then id.
func groupMedia(media []*Media) map[int64][]*Media {
	out := make(map[int64][]*Media)
	for _, m := range media {
		out[m.ProductID] = append(out[m.ProductID], m)
	}
	for _, group := range out {
		slices.SortStableFunc(group, func(a, b *Media) int {
			if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return out
}

// pickListMedia prefers thumbnails. A product without any falls back to its
// gallery images.
func pickListMedia(media []*Media) []*Media {
	picked := pickType(media, MediaThumb, MaxListMedia)
	if len(picked) == 0 {
		picked = pickType(media, MediaImage, MaxListMedia)
	}
	return picked
}

func pickType(media []*Media, t MediaType, limit int) []*Media {
	out := []*Media{}
	for _, m := range media {
		if len(out) == limit {
			break
		}
		if m.Type == t && m.IsActive && m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out
}
