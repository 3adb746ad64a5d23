package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/models"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                 string
		aIn, aOut, bIn, bOut string
		want                 bool
	}{
		{"部分重叠", "2025-03-10", "2025-03-12", "2025-03-11", "2025-03-13", true},
		{"退房日入住", "2025-03-10", "2025-03-12", "2025-03-12", "2025-03-14", false},
		{"入住日退房", "2025-03-12", "2025-03-14", "2025-03-10", "2025-03-12", false},
		{"包含", "2025-03-10", "2025-03-20", "2025-03-12", "2025-03-13", true},
		{"相同", "2025-03-10", "2025-03-12", "2025-03-10", "2025-03-12", true},
		{"不相交", "2025-03-10", "2025-03-12", "2025-04-01", "2025-04-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aIn, tt.aOut, tt.bIn, tt.bOut))
			assert.Equal(t, tt.want, Overlaps(tt.bIn, tt.bOut, tt.aIn, tt.aOut), "对称")
		})
	}
}

func TestAvailabilityService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, f.request(f.deluxe.ID, "2025-03-10", "2025-03-12", models.PaymentMethodTransfer))

	ok, err := f.availability.IsRoomTypeAvailable(ctx, f.deluxe.ID, f.deluxe.Name, date(t, "2025-03-11"), date(t, "2025-03-13"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.availability.IsRoomTypeAvailable(ctx, f.deluxe.ID, f.deluxe.Name, date(t, "2025-03-12"), date(t, "2025-03-14"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.availability.IsRoomTypeAvailable(ctx, f.deluxe.ID, f.deluxe.Name, date(t, "2025-03-12"), date(t, "2025-03-12"))
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)

	names, err := f.availability.UnavailableRoomTypes(ctx, date(t, "2025-03-11"), date(t, "2025-03-12"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Deluxe"}, names)

	all, err := f.availability.Check(ctx, date(t, "2025-03-11"), date(t, "2025-03-12"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, a := range all {
		assert.Equal(t, a.RoomType.ID != f.deluxe.ID, a.Available)
	}
}

func TestAvailabilityService_LegacyRowsByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := &models.Booking{
		BookingNo:         "BKLEGACY0001",
		RoomTypeName:      "Family",
		CheckInDate:       "2025-03-10",
		CheckOutDate:      "2025-03-12",
		Nights:            2,
		Adults:            2,
		GuestName:         "旧资料",
		GuestPhone:        "0900000000",
		GuestEmail:        "legacy@example.com",
		PaymentMethod:     models.PaymentMethodTransfer,
		PaymentAmountType: models.PaymentAmountFull,
		Status:            models.BookingStatusActive,
		PaymentStatus:     models.PaymentStatusPaid,
	}
	require.NoError(t, f.db.Create(legacy).Error)

	names, err := f.availability.UnavailableRoomTypes(ctx, date(t, "2025-03-10"), date(t, "2025-03-11"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Family"}, names)

	_, err = f.service.CreateBooking(ctx, f.request(f.family.ID, "2025-03-11", "2025-03-12", models.PaymentMethodCard))
	assert.True(t, errors.IsConflict(err))
}
