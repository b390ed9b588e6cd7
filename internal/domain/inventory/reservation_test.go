package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservation(t *testing.T, qty int, ttl time.Duration) *Reservation {
	t.Helper()
	r, err := NewReservation(1, "order-1", "cust-1", qty, now.Add(ttl), now)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	r := newTestReservation(t, 3, DefaultHold)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, ReservationActive, r.Status)
	assert.Equal(t, now.Add(30*time.Minute), r.ExpiresAt)

	_, err := NewReservation(1, "o", "c", 0, now.Add(time.Minute), now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewReservation(1, "o", "c", 1, now.Add(-time.Second), now)
	assert.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = NewReservation(1, "o", "c", 1, now, now)
	assert.ErrorIs(t, err, ErrInvalidExpiry, "过期时间等于当前时间也不合法")
}

func TestReservation_Predicates(t *testing.T) {
	r := newTestReservation(t, 1, time.Minute)

	assert.True(t, r.CanConfirm(now))
	assert.True(t, r.CanCancel())
	assert.False(t, r.IsExpired(now))

	later := now.Add(time.Minute)
	assert.False(t, r.CanConfirm(later), "到期时刻不能再确认")
	assert.True(t, r.CanCancel(), "到期但未清理仍可取消")
	assert.True(t, r.IsExpired(later))
}

func TestReservation_Transitions(t *testing.T) {
	t.Run("确认", func(t *testing.T) {
		r := newTestReservation(t, 1, time.Minute)
		require.NoError(t, r.Confirm(now))
		assert.Equal(t, ReservationConfirmed, r.Status)
		require.NotNil(t, r.ConfirmedAt)
		assert.True(t, r.Status.IsTerminal())
	})

	t.Run("过期后确认失败", func(t *testing.T) {
		r := newTestReservation(t, 1, time.Minute)
		err := r.Confirm(now.Add(2 * time.Minute))

		var ise *InvalidStateError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "expired", ise.Reason)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, ReservationActive, r.Status)
	})

	t.Run("取消", func(t *testing.T) {
		r := newTestReservation(t, 1, time.Minute)
		require.NoError(t, r.Cancel("customer changed mind", now))
		assert.Equal(t, ReservationCancelled, r.Status)
		assert.Equal(t, "customer changed mind", r.CancellationReason)
		require.NotNil(t, r.CancelledAt)
	})

	t.Run("过期", func(t *testing.T) {
		r := newTestReservation(t, 1, time.Minute)
		assert.ErrorIs(t, r.Expire(now), ErrInvalidState, "未到期不能置为过期")

		require.NoError(t, r.Expire(now.Add(time.Hour)))
		assert.Equal(t, ReservationExpired, r.Status)
	})

	t.Run("终态不可再变", func(t *testing.T) {
		for _, status := range []ReservationStatus{ReservationConfirmed, ReservationCancelled, ReservationExpired} {
			r := newTestReservation(t, 1, time.Minute)
			r.Status = status
			assert.ErrorIs(t, r.Confirm(now), ErrInvalidState, status)
			assert.ErrorIs(t, r.Cancel("x", now), ErrInvalidState, status)
			assert.ErrorIs(t, r.Expire(now.Add(time.Hour)), ErrInvalidState, status)
			assert.Equal(t, status, r.Status)
		}
	})
}

func TestMovements(t *testing.T) {
	item := newTestItem(t, 10)
	r := newTestReservation(t, 3, time.Minute)

	hold := NewHoldMovement(item, r, 10, now)
	assert.Equal(t, MovementOutbound, hold.Type)
	assert.Equal(t, -3, hold.Quantity)
	assert.Equal(t, 10, hold.PreviousQuantity)
	assert.Equal(t, 7, hold.NewQuantity)
	assert.Equal(t, r.ID, hold.ReferenceNumber)

	confirm := NewConfirmMovement(item, r, 3, now)
	assert.Equal(t, BucketReserved, confirm.Bucket)
	assert.Equal(t, 0, confirm.NewQuantity)

	r.Status = ReservationExpired
	release := NewReleaseMovement(item, r, 5, now)
	assert.Equal(t, MovementReturn, release.Type)
	assert.Equal(t, ReasonReservationExpired, release.Reason)
	assert.Equal(t, 8, release.NewQuantity)

	t.Run("入库成本", func(t *testing.T) {
		in := NewInboundMovement(item, InboundParams{
			Quantity: 4,
			UnitCost: decimal.NewNullDecimal(decimal.RequireFromString("2.55")),
		}, 0, now)
		require.True(t, in.TotalCost.Valid)
		assert.True(t, decimal.RequireFromString("10.2").Equal(in.TotalCost.Decimal))

		noCost := NewInboundMovement(item, InboundParams{Quantity: 4}, 0, now)
		assert.False(t, noCost.TotalCost.Valid)
	})
}

func TestListParams_Normalize(t *testing.T) {
	p := ListParams{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 500}.Normalize()
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 200, p.Offset())
}

func TestExpiredCursor(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &Reservation{ID: "b", ExpiresAt: at}

	assert.True(t, ExpiredCursor{}.Before(r), "零值从头开始")

	c := CursorAfter(r)
	assert.False(t, c.Before(r), "游标所在记录不再返回")
	assert.True(t, c.Before(&Reservation{ID: "c", ExpiresAt: at}))
	assert.False(t, c.Before(&Reservation{ID: "a", ExpiresAt: at}))
	assert.True(t, c.Before(&Reservation{ID: "a", ExpiresAt: at.Add(time.Second)}))
	assert.False(t, c.Before(&Reservation{ID: "z", ExpiresAt: at.Add(-time.Second)}))
}
