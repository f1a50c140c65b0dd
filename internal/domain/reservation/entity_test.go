//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"inventory-engine/internal/domain/reservation"
	"inventory-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewReservation(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		id := uuid.New()
		actual, err := builder.NewReservationBuilder().
			WithID(id).
			WithQuantity(4).
			WithTTL(10 * time.Minute).
			WithNow(baseTime).
			BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.Equal(t, id, actual.ID())
		assert.Equal(t, int64(4), actual.Quantity())
		assert.Equal(t, reservation.StatusPending, actual.Status())
		assert.Equal(t, baseTime, actual.CreatedAt())
		assert.Equal(t, baseTime.Add(10*time.Minute), actual.ExpiresAt())
		assert.Nil(t, actual.ConfirmedAt())
		assert.Nil(t, actual.ReleasedAt())
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*builder.ReservationBuilder)
			errIs  error
		}{
			{
				name:   "zero quantity",
				mutate: func(b *builder.ReservationBuilder) { b.WithQuantity(0) },
				errIs:  reservation.ErrInvalidQuantity,
			},
			{
				name:   "negative quantity",
				mutate: func(b *builder.ReservationBuilder) { b.WithQuantity(-1) },
				errIs:  reservation.ErrInvalidQuantity,
			},
			{
				name:   "zero ttl",
				mutate: func(b *builder.ReservationBuilder) { b.WithTTL(0) },
				errIs:  reservation.ErrInvalidTTL,
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewReservationBuilder()
				tc.mutate(b)
				_, err := b.BuildDomain()
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})
}

func TestReservationConfirm(t *testing.T) {
	cases := []struct {
		name       string
		from       reservation.Status
		errIs      error
		wantStatus reservation.Status
	}{
		{name: "pending confirms", from: reservation.StatusPending, wantStatus: reservation.StatusConfirmed},
		{name: "confirmed is a no-op", from: reservation.StatusConfirmed, wantStatus: reservation.StatusConfirmed},
		{name: "released rejects", from: reservation.StatusReleased, errIs: reservation.ErrNotPending, wantStatus: reservation.StatusReleased},
		{name: "expired rejects", from: reservation.StatusExpired, errIs: reservation.ErrNotPending, wantStatus: reservation.StatusExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := builder.NewReservationBuilder().WithNow(baseTime).BuildWithStatus(tc.from)

			err := res.Confirm(baseTime.Add(time.Minute))
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantStatus, res.Status())
		})
	}

	t.Run("confirm stamps confirmed_at once", func(t *testing.T) {
		res, err := builder.NewReservationBuilder().WithNow(baseTime).BuildDomain()
		require.NoError(t, err)

		confirmTime := baseTime.Add(time.Minute)
		require.NoError(t, res.Confirm(confirmTime))
		require.NotNil(t, res.ConfirmedAt())
		assert.Equal(t, confirmTime, *res.ConfirmedAt())

		// A second confirm keeps the first timestamp.
		require.NoError(t, res.Confirm(baseTime.Add(2*time.Minute)))
		assert.Equal(t, confirmTime, *res.ConfirmedAt())
	})
}

func TestReservationRelease(t *testing.T) {
	cases := []struct {
		name       string
		from       reservation.Status
		reason     reservation.ReleaseReason
		errIs      error
		wantStatus reservation.Status
	}{
		{name: "pending releases", from: reservation.StatusPending, reason: reservation.ReasonReleased, wantStatus: reservation.StatusReleased},
		{name: "pending expires", from: reservation.StatusPending, reason: reservation.ReasonExpired, wantStatus: reservation.StatusExpired},
		{name: "released release is a no-op", from: reservation.StatusReleased, reason: reservation.ReasonReleased, wantStatus: reservation.StatusReleased},
		{name: "expired expire is a no-op", from: reservation.StatusExpired, reason: reservation.ReasonExpired, wantStatus: reservation.StatusExpired},
		{name: "confirmed rejects release", from: reservation.StatusConfirmed, reason: reservation.ReasonReleased, errIs: reservation.ErrNotPending, wantStatus: reservation.StatusConfirmed},
		{name: "released rejects expire", from: reservation.StatusReleased, reason: reservation.ReasonExpired, errIs: reservation.ErrNotPending, wantStatus: reservation.StatusReleased},
		{name: "invalid reason rejects", from: reservation.StatusPending, reason: reservation.ReleaseReason("bogus"), errIs: reservation.ErrInvalidReason, wantStatus: reservation.StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := builder.NewReservationBuilder().WithNow(baseTime).BuildWithStatus(tc.from)

			err := res.Release(tc.reason, baseTime.Add(time.Minute))
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantStatus, res.Status())
		})
	}
}

func TestReservationIsExpiredAt(t *testing.T) {
	res, err := builder.NewReservationBuilder().
		WithNow(baseTime).
		WithTTL(10 * time.Minute).
		BuildDomain()
	require.NoError(t, err)

	assert.False(t, res.IsExpiredAt(baseTime.Add(10*time.Minute)))
	assert.True(t, res.IsExpiredAt(baseTime.Add(10*time.Minute+time.Second)))

	// Terminal reservations never count as expired.
	confirmed := builder.NewReservationBuilder().WithNow(baseTime).BuildWithStatus(reservation.StatusConfirmed)
	assert.False(t, confirmed.IsExpiredAt(baseTime.Add(time.Hour)))
}
