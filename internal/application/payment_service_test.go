package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/domain/payment"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *serviceFixture) paymentService() *PaymentService {
	return NewPaymentService(newMemPaymentRepo(), storeRefs{f.store}, f.publisher, zap.NewNop())
}

func (f *serviceFixture) booked(t *testing.T) uuid.UUID {
	t.Helper()
	dto, err := f.bookings.CreateBooking(context.Background(), f.actor, f.createRequest(clock(9, 0), clock(10, 0)))
	require.NoError(t, err)
	return dto.ID
}

func TestPaymentServiceCreate(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	bookingID := f.booked(t)

	t.Run("unknown booking is a bad request", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: uuid.New(), AmountCents: ptr(int64(100)), Method: "card"})
		var de *domain.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, domain.KindValidation, de.Kind)
		assert.Equal(t, "FOREIGN_KEY_INVALID", de.Code)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: bookingID, AmountCents: ptr(int64(-1)), Method: "card"})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("missing amount", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: bookingID, Method: "card"})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: bookingID, AmountCents: ptr(int64(100)), Method: "card", Status: "settled"})
		assert.True(t, errors.Is(err, payment.ErrInvalidStatus))
	})

	dto, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: bookingID, AmountCents: ptr(int64(0)), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "pending", dto.Status)
	assert.Zero(t, dto.AmountCents)
	assert.Equal(t, []string{event.BookingCreated, event.PaymentCreated}, f.publisher.types())
}

func TestPaymentServiceUpdate(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	bookingID := f.booked(t)

	dto, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: bookingID, AmountCents: ptr(int64(2500)), Method: "card"})
	require.NoError(t, err)

	_, err = svc.UpdatePayment(ctx, f.actor, dto.ID, UpdatePaymentRequest{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "no fields to update")

	_, err = svc.UpdatePayment(ctx, f.actor, dto.ID, UpdatePaymentRequest{BookingID: ptr(uuid.New())})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.UpdatePayment(ctx, f.actor, dto.ID, UpdatePaymentRequest{Status: ptr("paid"), AmountCents: ptr(int64(-1))})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	current, err := svc.GetPayment(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", current.Status, "rejected update is not stored")

	updated, err := svc.UpdatePayment(ctx, f.actor, dto.ID, UpdatePaymentRequest{Status: ptr("paid"), TransactionRef: ptr("txn-1")})
	require.NoError(t, err)
	assert.Equal(t, "paid", updated.Status)
	assert.Equal(t, "txn-1", updated.TransactionRef)
	assert.Equal(t, int64(2500), updated.AmountCents)

	_, err = svc.UpdatePayment(ctx, f.actor, uuid.New(), UpdatePaymentRequest{Method: ptr("cash")})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPaymentServiceListAndStats(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.paymentService()
	ctx := context.Background()
	bookingID := f.booked(t)

	for _, req := range []CreatePaymentRequest{
		{BookingID: bookingID, AmountCents: ptr(int64(1000)), Method: "card", Status: "paid"},
		{BookingID: bookingID, AmountCents: ptr(int64(500)), Method: "card", Status: "paid"},
		{BookingID: bookingID, AmountCents: ptr(int64(700)), Method: "cash"},
	} {
		_, err := svc.CreatePayment(ctx, f.actor, req)
		require.NoError(t, err)
	}

	paid, err := svc.ListPayments(ctx, ListPaymentsQuery{Status: "paid"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), paid.Total)

	cash, err := svc.ListPayments(ctx, ListPaymentsQuery{Method: "cash", BookingID: bookingID.String()}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cash.Total)

	_, err = svc.ListPayments(ctx, ListPaymentsQuery{Status: "PAID"}, 1, 10)
	assert.True(t, errors.Is(err, payment.ErrInvalidStatus))

	_, err = svc.ListPayments(ctx, ListPaymentsQuery{From: "yesterday"}, 1, 10)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	stats, err := svc.PaymentStats(ctx, PaymentStatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []PaymentStatusTotalDTO{
		{Status: "paid", Count: 2, TotalAmountCents: 1500},
		{Status: "pending", Count: 1, TotalAmountCents: 700},
	}, stats)
}

func TestPaymentServiceDelete(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.paymentService()
	ctx := context.Background()

	dto, err := svc.CreatePayment(ctx, f.actor, CreatePaymentRequest{BookingID: f.booked(t), AmountCents: ptr(int64(100)), Method: "card"})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(ctx, f.actor, dto.ID))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(svc.DeletePayment(ctx, f.actor, dto.ID)))
	assert.Contains(t, f.publisher.types(), event.PaymentDeleted)
}
