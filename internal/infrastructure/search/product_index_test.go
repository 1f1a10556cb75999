package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
)

type esCall struct {
	Method string
	Path   string
	Body   string
}

func newFakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*elasticsearch.Client, *[]esCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []esCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, esCall{Method: r.Method, Path: r.URL.Path, Body: string(b)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, &calls
}

func TestProductIndex_IndexSellingHasSuggest(t *testing.T) {
	es, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	x := NewProductIndex(es, "products", nil)

	p := &entity.Product{ID: 3, Name: "Desk lamp", Price: 1500, Status: entity.ProductStatusSell, SellerID: 1, CreatedAt: time.Now()}
	require.NoError(t, x.Index(context.Background(), p))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.Method)
	assert.Equal(t, "/products/_doc/3", call.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Body), &doc))
	assert.Equal(t, "SELL", doc["status"])
	assert.Equal(t, []any{"Desk lamp", "lamp"}, doc["suggest"].(map[string]any)["input"])
}

func TestProductIndex_SoldHasNoSuggest(t *testing.T) {
	es, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"updated"}`))
	})
	x := NewProductIndex(es, "products", nil)

	buyer := int64(9)
	p := &entity.Product{ID: 3, Name: "Desk lamp", Status: entity.ProductStatusSoldOut, BuyerID: &buyer}
	require.NoError(t, x.Index(context.Background(), p))
	assert.NotContains(t, (*calls)[0].Body, "suggest")
}

func TestProductIndex_RemoveMissingIsOK(t *testing.T) {
	es, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	x := NewProductIndex(es, "products", nil)
	assert.NoError(t, x.Remove(context.Background(), 42))
}

func TestProductIndex_Suggest(t *testing.T) {
	es, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
		  "suggest": {"product-suggest": [{"text": "la", "options": [
		    {"text": "lamp", "_source": {"name": "Desk lamp"}},
		    {"text": "Lamp shade", "_source": {"name": "Lamp shade"}},
		    {"text": "lamp", "_source": {"name": "Desk lamp"}}
		  ]}]}
		}`))
	})
	x := NewProductIndex(es, "products", nil)

	got, err := x.Suggest(context.Background(), "la", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Desk lamp", "Lamp shade"}, got)

	require.Len(t, *calls, 1)
	assert.True(t, strings.HasSuffix((*calls)[0].Path, "/products/_search"))
	assert.Contains(t, (*calls)[0].Body, `"prefix":"la"`)
}

func TestProductIndex_EnsureIndexCreatesWhenMissing(t *testing.T) {
	es, calls := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})
	x := NewProductIndex(es, "products", nil)
	require.NoError(t, x.EnsureIndex(context.Background()))

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPut, (*calls)[1].Method)
	assert.Contains(t, (*calls)[1].Body, `"completion"`)
}

func TestSuggestInputs(t *testing.T) {
	assert.Equal(t, []string{"a b c", "b c", "c"}, suggestInputs(" a  b c "))
	assert.Empty(t, suggestInputs(""))
}
