package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

const suggestName = "product-suggest"

// ProductIndex mirrors products into Elasticsearch and serves name completions.
type ProductIndex struct {
	ES        *elasticsearch.Client
	IndexName string
	Logger    *logrus.Logger
	Timeout   time.Duration
}

func NewProductIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *ProductIndex {
	return &ProductIndex{ES: es, IndexName: index, Logger: logger, Timeout: 3 * time.Second}
}

var indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "price":       {"type": "long"},
      "status":      {"type": "keyword"},
      "seller_id":   {"type": "long"},
      "image_url":   {"type": "keyword", "index": false},
      "created_at":  {"type": "date"},
      "suggest":     {"type": "completion"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *ProductIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.IndexName}}.Do(c, x.ES)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.IndexName, Body: strings.NewReader(indexMapping)}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.IndexName, res.Status())
	}
	return nil
}

type productDoc struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       int64       `json:"price"`
	Status      string      `json:"status"`
	SellerID    int64       `json:"seller_id"`
	ImageURL    string      `json:"image_url,omitempty"`
	CreatedAt   string      `json:"created_at"`
	Suggest     *suggestDoc `json:"suggest,omitempty"`
}

type suggestDoc struct {
	Input []string `json:"input"`
}

// suggestInputs offers the full name plus every word suffix so "lamp"
// completes "Desk lamp".
func suggestInputs(name string) []string {
	words := strings.Fields(name)
	out := make([]string, 0, len(words))
	for i := range words {
		out = append(out, strings.Join(words[i:], " "))
	}
	return out
}

func toDoc(p *entity.Product) productDoc {
	d := productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Status:      string(p.Status),
		SellerID:    p.SellerID,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	// Only products for sale are offered as completions.
	if p.CanPurchase() {
		if in := suggestInputs(p.Name); len(in) > 0 {
			d.Suggest = &suggestDoc{Input: in}
		}
	}
	return d
}

func (x *ProductIndex) Index(ctx context.Context, p *entity.Product) error {
	b, err := json.Marshal(toDoc(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: strconv.FormatInt(p.ID, 10), Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if x.Logger != nil {
			x.Logger.WithField("status", res.Status()).WithField("product_id", p.ID).Warn("es index response error")
		}
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

// Remove deletes the product document. A missing document is not an error.
func (x *ProductIndex) Remove(ctx context.Context, productID int64) error {
	req := esapi.DeleteRequest{Index: x.IndexName, DocumentID: strconv.FormatInt(productID, 10)}
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete product %d: %s", productID, res.Status())
	}
	return nil
}

// Suggest runs a completion query and returns distinct product names.
func (x *ProductIndex) Suggest(ctx context.Context, prefix string, size int) ([]string, error) {
	query := map[string]any{
		"_source": []string{"name"},
		"suggest": map[string]any{
			suggestName: map[string]any{
				"prefix": prefix,
				"completion": map[string]any{
					"field":           "suggest",
					"size":            size,
					"skip_duplicates": true,
				},
			},
		},
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.IndexName), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("suggest: %s", res.Status())
	}

	var parsed struct {
		Suggest map[string][]struct {
			Options []struct {
				Text   string `json:"text"`
				Source struct {
					Name string `json:"name"`
				} `json:"_source"`
			} `json:"options"`
		} `json:"suggest"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := []string{}
	seen := map[string]bool{}
	for _, entry := range parsed.Suggest[suggestName] {
		for _, opt := range entry.Options {
			name := opt.Source.Name
			if name == "" {
				name = opt.Text
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out, nil
}
