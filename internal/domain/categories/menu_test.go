package categories

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestBuildVisibleMenu(t *testing.T) {
	rows := []*Category{
		cat(1, nil, "Women"),
		cat(2, ptr(1), "Tops"),
		cat(3, ptr(2), "Shirts"),
		cat(4, ptr(2), "Blouses"),
		cat(5, ptr(1), "Bags"),
		cat(6, nil, "Men"),
		cat(7, ptr(6), "Shoes"),
		cat(8, nil, "Empty"),
	}

	menu := BuildVisibleMenu(rows, []int64{3, 4, 7, 3})

	if got := names(menu); len(got) != 2 || got[0] != "Men" || got[1] != "Women" {
		t.Fatalf("roots = %v, want [Men Women]", got)
	}
	women := menu[1]
	if got := names(women.Children); len(got) != 1 || got[0] != "Tops" {
		t.Fatalf("Women children = %v, want [Tops]; Bags has no products", got)
	}
	if got := names(women.Children[0].Children); len(got) != 2 || got[0] != "Blouses" || got[1] != "Shirts" {
		t.Fatalf("Tops children = %v, want [Blouses Shirts]", got)
	}
}

func TestBuildVisibleMenu_ParentNotVisibleBecomesRoot(t *testing.T) {
	rows := []*Category{
		cat(1, nil, "Root"),
		cat(2, ptr(1), "Inactive"),
		cat(3, ptr(2), "Leaf"),
	}
	rows[1].IsActive = false

	menu := BuildVisibleMenu(rows, []int64{3})
	if len(menu) != 1 || menu[0].ID != 3 {
		t.Fatalf("leaf under an inactive parent should be a root, got %+v", menu)
	}
}

func TestBuildVisibleMenu_IgnoresUnknownAndEmpty(t *testing.T) {
	menu := BuildVisibleMenu(sampleRows(), []int64{404})
	if menu == nil || len(menu) != 0 {
		t.Fatalf("expected empty, non-nil menu, got %+v", menu)
	}
}

type fakeLister struct {
	rows  []*Category
	calls int
}

func (f *fakeLister) ListAll(context.Context) ([]*Category, error) {
	f.calls++
	return f.rows, nil
}

type fakeProductCats struct {
	ids []int64
	err error
}

func (f *fakeProductCats) DistinctCategoryIDs(context.Context) ([]int64, error) {
	return f.ids, f.err
}

func newMenuFixture(t *testing.T) (*MenuService, *fakeLister, *fakeProductCats, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	lister := &fakeLister{rows: sampleRows()}
	products := &fakeProductCats{ids: []int64{3}}
	svc := NewMenuService(lister, products, cache.NewRedisCache(rdb), 5*time.Minute, zap.NewNop().Sugar())
	return svc, lister, products, s
}

func TestMenuService_CachesUntilInvalidated(t *testing.T) {
	svc, lister, products, _ := newMenuFixture(t)
	ctx := context.Background()

	first, err := svc.GetVisibleMenu(ctx)
	if err != nil {
		t.Fatalf("first menu: %v", err)
	}
	if len(first) != 1 || first[0].Name != "Root" {
		t.Fatalf("unexpected first menu: %+v", first)
	}

	// a product lands in Solo but nobody invalidates yet
	products.ids = []int64{3, 5}
	stale, err := svc.GetVisibleMenu(ctx)
	if err != nil {
		t.Fatalf("second menu: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected the cached snapshot before invalidation, got %+v", names(stale))
	}
	if lister.calls != 1 {
		t.Fatalf("expected one rebuild, got %d", lister.calls)
	}

	if err := svc.Invalidate(ctx, "product_create"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, err := svc.GetVisibleMenu(ctx)
	if err != nil {
		t.Fatalf("third menu: %v", err)
	}
	if got := names(fresh); len(got) != 2 || got[1] != "Solo" {
		t.Fatalf("expected rebuilt menu with Solo, got %v", got)
	}
}

func TestMenuService_ExpiresAfterTTL(t *testing.T) {
	svc, lister, _, s := newMenuFixture(t)
	ctx := context.Background()

	if _, err := svc.GetVisibleMenu(ctx); err != nil {
		t.Fatalf("menu: %v", err)
	}
	s.FastForward(5*time.Minute + time.Second)
	if _, err := svc.GetVisibleMenu(ctx); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if lister.calls != 2 {
		t.Fatalf("expected a rebuild after the TTL, got %d loads", lister.calls)
	}
}

func TestMenuService_CorruptEntryRebuilds(t *testing.T) {
	svc, lister, _, s := newMenuFixture(t)

	if err := s.Set(cache.Key(MenuCacheKey), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	menu, err := svc.GetVisibleMenu(context.Background())
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(menu) != 1 || lister.calls != 1 {
		t.Fatalf("expected a rebuild, got %d loads and %+v", lister.calls, menu)
	}
}

func TestMenuService_CacheDownStillServes(t *testing.T) {
	svc, lister, _, s := newMenuFixture(t)
	s.Close()

	menu, err := svc.GetVisibleMenu(context.Background())
	if err != nil {
		t.Fatalf("menu should be built without the cache: %v", err)
	}
	if len(menu) != 1 || lister.calls != 1 {
		t.Fatalf("unexpected menu %+v", menu)
	}
}

func TestMenuService_SourceErrorPropagates(t *testing.T) {
	svc, _, products, _ := newMenuFixture(t)
	products.err = errors.New("db down")

	if _, err := svc.GetVisibleMenu(context.Background()); err == nil {
		t.Fatalf("expected an error when product categories cannot be loaded")
	}
}
