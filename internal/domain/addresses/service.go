package addresses

import (
	"context"
	"strings"
)

// Service keeps at most one default address per user. Any write that makes
// an address the default clears the previous one in the same transaction.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Address, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Address, error) {
	return s.store.Get(ctx, userID, id)
}

// Add forces the default flag on a user's first address.
func (s *Service) Add(ctx context.Context, userID int64, in Input) (*Address, error) {
	in = normalize(in)

	var created *Address
	err := s.store.WithTx(ctx, func(tx Store) error {
		n, err := tx.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			in.IsDefault = true
		}
		if in.IsDefault && n > 0 {
			if err := tx.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		created, err = tx.Create(ctx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update never unsets the default flag; another address has to be made the
// default instead.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (*Address, error) {
	in = normalize(in)

	var updated *Address
	err := s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Get(ctx, userID, id); err != nil {
			return err
		}
		if in.IsDefault {
			if err := tx.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.Update(ctx, userID, id, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	a, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if a.IsDefault {
		return ErrDefaultNotDeleted
	}
	return s.store.Delete(ctx, userID, id)
}

func (s *Service) SetDefault(ctx context.Context, userID, id int64) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.Get(ctx, userID, id); err != nil {
			return err
		}
		if err := tx.ClearDefault(ctx, userID); err != nil {
			return err
		}
		return tx.MarkDefault(ctx, userID, id)
	})
}

func normalize(in Input) Input {
	in.ZipCode = strings.TrimSpace(in.ZipCode)
	in.Address = strings.TrimSpace(in.Address)
	if in.AddressDetail != nil {
		d := strings.TrimSpace(*in.AddressDetail)
		if d == "" {
			in.AddressDetail = nil
		} else {
			in.AddressDetail = &d
		}
	}
	return in
}
