package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/cache"
	"storefront/internal/metrics"

	"go.uber.org/zap"
)

const (
	MenuCacheKey   = "CATEGORY_MENU_V1"
	DefaultMenuTTL = 5 * time.Minute
)

// ProductCategorySource lists the distinct category ids that own at least
// one product that is not soft-deleted. Hidden products count.
type ProductCategorySource interface {
	DistinctCategoryIDs(ctx context.Context) ([]int64, error)
}

// BuildVisibleMenu returns the forest of categories that contain a product
// directly or through a descendant.
func BuildVisibleMenu(rows []*Category, productCategoryIDs []int64) []*Node {
	t := NewTree(rows)
	return t.buildForest(t.visibleSet(productCategoryIDs))
}

// visibleSet expands seeds upward through their ancestors. The walk for a
// seed stops at the first ancestor already in the set.
func (t *Tree) visibleSet(seeds []int64) map[int64]struct{} {
	visible := make(map[int64]struct{})
	for _, id := range seeds {
		cur := id
		for {
			c, ok := t.byID[cur]
			if !ok {
				break
			}
			if _, done := visible[cur]; done {
				break
			}
			visible[cur] = struct{}{}

			pid, ok := t.parentOf(c)
			if !ok {
				break
			}
			cur = pid
		}
	}
	return visible
}

// MenuService memoizes the visible menu in a shared cache. Every product or
// media mutation must call Invalidate.
type MenuService struct {
	categories Lister
	products   ProductCategorySource
	cache      cache.Cache
	ttl        time.Duration
	logger     *zap.SugaredLogger
}

// Lister is the part of the category store the menu needs.
type Lister interface {
	ListAll(ctx context.Context) ([]*Category, error)
}

func NewMenuService(categories Lister, products ProductCategorySource, c cache.Cache, ttl time.Duration, logger *zap.SugaredLogger) *MenuService {
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &MenuService{
		categories: categories,
		products:   products,
		cache:      c,
		ttl:        ttl,
		logger:     logger,
	}
}

// GetVisibleMenu serves the cached forest or rebuilds it. Cache failures
// degrade to a rebuild; they are never returned to the caller.
func (m *MenuService) GetVisibleMenu(ctx context.Context) ([]*Node, error) {
	raw, ok, err := m.cache.Get(ctx, MenuCacheKey)
	switch {
	case err != nil:
		metrics.MenuCacheLookups.WithLabelValues("error").Inc()
		m.logger.Warnw("menu cache read failed", "error", err)
	case ok:
		var menu []*Node
		if err := json.Unmarshal(raw, &menu); err == nil {
			metrics.MenuCacheLookups.WithLabelValues("hit").Inc()
			return menu, nil
		}
		m.logger.Warnw("menu cache entry is corrupt, rebuilding", "key", MenuCacheKey)
	default:
		metrics.MenuCacheLookups.WithLabelValues("miss").Inc()
	}

	menu, err := m.build(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(menu)
	if err != nil {
		return nil, fmt.Errorf("encode menu: %w", err)
	}
	if err := m.cache.Set(ctx, MenuCacheKey, encoded, m.ttl); err != nil {
		m.logger.Warnw("menu cache write failed", "error", err)
	}
	return menu, nil
}

func (m *MenuService) build(ctx context.Context) ([]*Node, error) {
	rows, err := m.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	ids, err := m.products.DistinctCategoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}
	metrics.MenuRebuilds.Inc()
	return BuildVisibleMenu(rows, ids), nil
}

// Invalidate evicts the cached menu so the next reader rebuilds it.
func (m *MenuService) Invalidate(ctx context.Context, reason string) error {
	metrics.MenuInvalidations.WithLabelValues(reason).Inc()
	if err := m.cache.Delete(ctx, MenuCacheKey); err != nil {
		m.logger.Errorw("menu cache invalidation failed", "reason", reason, "error", err)
		return err
	}
	return nil
}
