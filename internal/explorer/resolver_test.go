package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const testABI = `[{"inputs":[],"name":"getActiveId","outputs":[{"internalType":"uint24","name":"activeId","type":"uint24"}],"stateMutability":"view","type":"function"}]`

func newExplorerServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("action") != "getabi" || q.Get("module") != "contract" || q.Get("chainid") != "42161" || q.Get("apikey") != "key" {
			w.Write([]byte(`{"status":"0","message":"NOTOK","result":"bad request"}`))
			return
		}
		if q.Get("address") == common.HexToAddress("0x2222222222222222222222222222222222222222").Hex() {
			w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`))
			return
		}
		payload := map[string]string{"status": "1", "message": "OK", "result": testABI}
		data, _ := json.Marshal(payload)
		w.Write(data)
	}))
}

func TestResolverFetchesOnceAndCaches(t *testing.T) {
	var hits int32
	server := newExplorerServer(t, &hits)
	defer server.Close()

	cache := NewCache()
	resolver := NewResolver(NewClient(server.URL, "key"), cache, zap.NewNop())
	address := common.HexToAddress("0x1111111111111111111111111111111111111111")

	for i := 0; i < 2; i++ {
		parsed, err := resolver.Resolve(context.Background(), 42161, address)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, ok := parsed.Methods["getActiveId"]; !ok {
			t.Fatalf("getActiveId missing from resolved abi")
		}
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one explorer hit, got %d", hits)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache size mismatch: %d", cache.Len())
	}
}

func TestResolverUnverifiedContract(t *testing.T) {
	var hits int32
	server := newExplorerServer(t, &hits)
	defer server.Close()

	resolver := NewResolver(NewClient(server.URL, "key"), NewCache(), nil)
	_, err := resolver.Resolve(context.Background(), 42161, common.HexToAddress("0x2222222222222222222222222222222222222222"))
	if !errors.Is(err, ErrABINotFound) {
		t.Fatalf("expected ErrABINotFound, got %v", err)
	}
}

func TestResolverCacheOnly(t *testing.T) {
	cache := NewCache()
	address := common.HexToAddress("0x1111111111111111111111111111111111111111")
	cache.Set(address.Hex(), testABI)

	resolver := NewResolver(nil, cache, nil)
	if _, err := resolver.Resolve(context.Background(), 42161, address); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}

	_, err := resolver.Resolve(context.Background(), 42161, common.HexToAddress("0x3333333333333333333333333333333333333333"))
	if !errors.Is(err, ErrABINotFound) {
		t.Fatalf("expected ErrABINotFound, got %v", err)
	}
}

func TestCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "abi_cache.json")

	cache := NewCache()
	cache.Set("0xAbC0000000000000000000000000000000000001", testABI)
	if err := cache.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadCache(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	raw, ok := loaded.Get("0xabc0000000000000000000000000000000000001")
	if !ok || raw != testABI {
		t.Fatalf("cache entry mismatch")
	}

	missing, err := LoadCache(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if missing.Len() != 0 {
		t.Fatalf("missing cache should be empty")
	}
}
