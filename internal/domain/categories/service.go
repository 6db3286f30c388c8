package categories

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type MenuInvalidator interface {
	Invalidate(ctx context.Context, reason string) error
}

// Service serves the public category reads and the admin mutations. Every
// mutation evicts the cached menu.
type Service struct {
	store  Store
	menu   MenuInvalidator
	logger *zap.SugaredLogger
}

func NewService(store Store, menu MenuInvalidator, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, menu: menu, logger: logger}
}

func (s *Service) LoadTree(ctx context.Context) (*Tree, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(rows), nil
}

func (s *Service) Forest(ctx context.Context) ([]*Node, error) {
	t, err := s.LoadTree(ctx)
	if err != nil {
		return nil, err
	}
	return t.Forest(), nil
}

// Children feeds the level picker: nil parentID lists the roots.
func (s *Service) Children(ctx context.Context, parentID *int64) ([]*Category, error) {
	t, err := s.LoadTree(ctx)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, ok := t.Get(*parentID); !ok {
			return nil, ErrNotFound
		}
	}
	return t.Children(parentID), nil
}

func (s *Service) Locate(ctx context.Context, id int64) (*Location, error) {
	t, err := s.LoadTree(ctx)
	if err != nil {
		return nil, err
	}
	return t.Locate(id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Category, error) {
	if in.ParentID != nil {
		t, err := s.LoadTree(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := t.Get(*in.ParentID); !ok {
			return nil, ErrInvalidParent
		}
	}

	c, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "category_create")
	return c, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Category, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, ErrCircularParent
		}
		rows, err := s.store.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		// the moved category may be inactive, so check against every row
		all := newTree(rows, true)
		parent, ok := all.Get(*in.ParentID)
		if !ok || !parent.IsActive {
			return nil, ErrInvalidParent
		}
		if all.IsDescendant(id, *in.ParentID) {
			return nil, ErrCircularParent
		}
	}

	c, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "category_update")
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	children, err := s.store.CountActiveChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrHasChildren
	}

	products, err := s.store.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return ErrHasProducts
	}

	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.invalidate(ctx, "category_delete")
	return nil
}

// invalidate never fails the mutation that already committed; the menu
// service logs eviction errors.
func (s *Service) invalidate(ctx context.Context, reason string) {
	_ = s.menu.Invalidate(ctx, reason)
}
