package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

var (
	ErrDisabled = errors.New("search disabled")
	ErrNoOwner  = errors.New("search needs a user id")
)

type OrderLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type OrderDocument struct {
	OrderID         string      `json:"order_id"`
	UserID          string      `json:"user_id"`
	Status          string      `json:"status"`
	TotalAmount     string      `json:"total_amount"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	Items           []OrderLine `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type OrderIndex struct {
	es    *elasticsearch.Client
	index string
}

// NewOrderIndex wraps es; a nil client yields a disabled index.
func NewOrderIndex(es *elasticsearch.Client, index string) *OrderIndex {
	return &OrderIndex{es: es, index: index}
}

func (i *OrderIndex) Enabled() bool {
	return i != nil && i.es != nil
}

func (i *OrderIndex) IndexOrder(ctx context.Context, doc OrderDocument) error {
	if !i.Enabled() {
		return ErrDisabled
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode order document: %w", err)
	}

	res, err := i.es.Index(i.index, &buf,
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(doc.OrderID),
	)
	if err != nil {
		return fmt.Errorf("index order %s: %w", doc.OrderID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index order %s: %s", doc.OrderID, res.Status())
	}
	return nil
}

// SearchOrders runs a fuzzy match over addresses and product names of the
// orders owned by userID.
func (i *OrderIndex) SearchOrders(ctx context.Context, userID, query string, from, size int) (int64, []OrderDocument, error) {
	if !i.Enabled() {
		return 0, nil, ErrDisabled
	}
	if userID == "" {
		return 0, nil, ErrNoOwner
	}

	must := []map[string]any{{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"items.product_name^2", "shipping_address", "payment_method"},
			"fuzziness": "AUTO",
		},
	}}
	filter := []map[string]any{{"term": map[string]any{"user_id.keyword": userID}}}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must, "filter": filter},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search orders: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search orders: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]OrderDocument, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		docs[n] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
