package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
)

// ReservationRepository 预留单仓储
type ReservationRepository struct {
	store *Store
}

// NewReservationRepository 创建预留单仓储
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

// Create 创建预留单
func (r *ReservationRepository) Create(ctx context.Context, res *inventory.Reservation) error {
	return r.store.autoCommit(ctx, func(t *tx) error {
		if _, ok := r.visible(ctx, res.ID); ok {
			return inventory.ErrConcurrencyConflict
		}
		t.newRes = append(t.newRes, copyReservation(res))
		return nil
	})
}

func (r *ReservationRepository) visible(ctx context.Context, id string) (*inventory.Reservation, bool) {
	if t := txFrom(ctx); t != nil {
		if res, ok := t.reservations[id]; ok {
			return res, true
		}
		for _, res := range t.newRes {
			if res.ID == id {
				return res, true
			}
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	return res, ok
}

// FindByID 返回副本
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*inventory.Reservation, error) {
	res, ok := r.visible(ctx, id)
	if !ok {
		return nil, inventory.ErrReservationNotFound
	}
	return copyReservation(res), nil
}

// Transition 可见状态必须等于from
func (r *ReservationRepository) Transition(ctx context.Context, res *inventory.Reservation, from inventory.ReservationStatus) error {
	return r.store.autoCommit(ctx, func(t *tx) error {
		cur, ok := r.visible(ctx, res.ID)
		if !ok {
			return inventory.ErrReservationNotFound
		}
		if cur.Status != from {
			return inventory.ErrConcurrencyConflict
		}

		for i, pending := range t.newRes {
			if pending.ID == res.ID {
				t.newRes[i] = copyReservation(res)
				return nil
			}
		}
		if _, written := t.resBase[res.ID]; !written {
			t.resBase[res.ID] = from
		}
		t.reservations[res.ID] = copyReservation(res)
		return nil
	})
}

func (r *ReservationRepository) filter(match func(*inventory.Reservation) bool) []*inventory.Reservation {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*inventory.Reservation
	for _, res := range r.store.reservations {
		if match(res) {
			out = append(out, copyReservation(res))
		}
	}
	return out
}

// ListByOrder 按创建时间升序
func (r *ReservationRepository) ListByOrder(_ context.Context, orderID string) ([]*inventory.Reservation, error) {
	out := r.filter(func(res *inventory.Reservation) bool { return res.OrderID == orderID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListByCustomer 按创建时间倒序
func (r *ReservationRepository) ListByCustomer(_ context.Context, customerID string) ([]*inventory.Reservation, error) {
	out := r.filter(func(res *inventory.Reservation) bool { return res.CustomerID == customerID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListExpired 按(到期时间, ID)升序
func (r *ReservationRepository) ListExpired(_ context.Context, now time.Time, after inventory.ExpiredCursor, limit int) ([]*inventory.Reservation, error) {
	out := r.filter(func(res *inventory.Reservation) bool {
		return res.Status == inventory.ReservationActive && res.ExpiresAt.Before(now) && after.Before(res)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
