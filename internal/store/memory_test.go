package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

func TestMemoryCartStore_ReadEmpty(t *testing.T) {
	sut := NewMemoryCartStore()

	items, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryCartStore_WriteNotifiesSubscribers(t *testing.T) {
	sut := NewMemoryCartStore()

	var got []domain.CartItem
	cancel, err := sut.Subscribe(context.Background(), func(items []domain.CartItem) {
		got = items
	})
	require.NoError(t, err)
	defer cancel()

	want := []domain.CartItem{{Barcode: "123", Name: "Aspirin", Price: 12.5, Quantity: 2}}
	require.NoError(t, sut.Write(context.Background(), want))

	assert.Equal(t, want, got)

	items, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, items)
}

func TestMemoryCartStore_CancelStopsDelivery(t *testing.T) {
	sut := NewMemoryCartStore()

	calls := 0
	cancel, err := sut.Subscribe(context.Background(), func([]domain.CartItem) {
		calls++
	})
	require.NoError(t, err)

	require.NoError(t, sut.Write(context.Background(), nil))
	cancel()
	require.NoError(t, sut.Write(context.Background(), nil))

	assert.Equal(t, 1, calls)
}

func TestMemoryCartStore_WriteErr(t *testing.T) {
	sut := NewMemoryCartStore()
	sut.WriteErr = errors.New("store down")

	err := sut.Write(context.Background(), []domain.CartItem{{Barcode: "1"}})
	require.Error(t, err)

	items, errRead := sut.Read(context.Background())
	require.NoError(t, errRead)
	assert.Empty(t, items, "failed write must not mutate state")
}

func TestMemoryCartStore_SubscriberGetsCopy(t *testing.T) {
	sut := NewMemoryCartStore()

	cancel, err := sut.Subscribe(context.Background(), func(items []domain.CartItem) {
		if len(items) > 0 {
			items[0].Quantity = 999
		}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, sut.Write(context.Background(), []domain.CartItem{{Barcode: "1", Quantity: 1}}))

	items, err := sut.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestMemoryPaymentStore_DefaultsFalse(t *testing.T) {
	sut := NewMemoryPaymentStore()

	flag, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestMemoryPaymentStore_WriteNotifiesSubscribers(t *testing.T) {
	sut := NewMemoryPaymentStore()

	var gotFlag bool
	var gotAt time.Time
	cancel, err := sut.Subscribe(context.Background(), func(flag bool, at time.Time) {
		gotFlag = flag
		gotAt = at
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, sut.Write(context.Background(), true))

	assert.True(t, gotFlag)
	assert.False(t, gotAt.IsZero())
}
