package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderIndex_Disabled(t *testing.T) {
	t.Parallel()

	idx := NewOrderIndex(nil, "orders")
	assert.False(t, idx.Enabled())
	assert.ErrorIs(t, idx.IndexOrder(context.Background(), OrderDocument{OrderID: "o"}), ErrDisabled)

	_, _, err := idx.SearchOrders(context.Background(), "", "anything", 0, 10)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOrderIndex_SearchRequiresOwner(t *testing.T) {
	t.Parallel()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://127.0.0.1:1"}})
	require.NoError(t, err)

	_, _, err = NewOrderIndex(client, "orders").SearchOrders(context.Background(), "", "keyboard", 0, 10)
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestOrderIndex_IndexAndSearch(t *testing.T) {
	url := os.Getenv("ES_URL")
	if url == "" {
		t.Skip("ES_URL is not set")
	}

	client, err := NewClient(url, os.Getenv("ES_USER"), os.Getenv("ES_PASSWORD"))
	require.NoError(t, err)

	index := "orders_test_" + uuid.NewString()[:8]
	idx := NewOrderIndex(client, index)
	t.Cleanup(func() {
		res, err := client.Indices.Delete([]string{index})
		if err == nil {
			res.Body.Close()
		}
	})

	userID := uuid.NewString()
	doc := OrderDocument{
		OrderID:         uuid.NewString(),
		UserID:          userID,
		Status:          "pending",
		TotalAmount:     "34.98",
		ShippingAddress: "1 Main St",
		PaymentMethod:   "card",
		Items:           []OrderLine{{ProductID: uuid.NewString(), ProductName: "Mechanical Keyboard", Quantity: 2}},
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, idx.IndexOrder(context.Background(), doc))

	res, err := client.Indices.Refresh(client.Indices.Refresh.WithIndex(index))
	require.NoError(t, err)
	res.Body.Close()

	total, docs, err := idx.SearchOrders(context.Background(), userID, "keyboard", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, doc.OrderID, docs[0].OrderID)

	total, _, err = idx.SearchOrders(context.Background(), uuid.NewString(), "keyboard", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}
