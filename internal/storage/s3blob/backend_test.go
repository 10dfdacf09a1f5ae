package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://e2.example.com", normaliseEndpoint("https://e2.example.com", false))
	assert.Equal(t, "http://localhost:9000", normaliseEndpoint("localhost:9000", false))
	assert.Equal(t, "https://minio.internal", normaliseEndpoint("minio.internal", true))
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
	assert.Equal(t, "http://127.0.0.1:9000", normaliseEndpoint("127.0.0.1:9000", false))
}

func TestKeys(t *testing.T) {
	b := &Backend{prefix: cleanPrefix("/stock-trades-platform/")}
	assert.Equal(t, "stock-trades-platform/raw/trades/a.parquet", b.key("raw/trades/a.parquet"))
	assert.Equal(t, "stock-trades-platform/raw/trades", b.key("/raw/trades/"))
	assert.Equal(t, "raw/trades/a.parquet", b.rel("stock-trades-platform/raw/trades/a.parquet"))

	bare := &Backend{}
	assert.Equal(t, "curated/bars_5m/x.csv", bare.key("curated/bars_5m/x.csv"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(errors.New("access denied")))
}

func TestNewValidates(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	require.Error(t, err)
	_, err = New(context.Background(), ClientConfig{Bucket: "b"})
	require.Error(t, err)

	b, err := New(context.Background(), ClientConfig{
		Endpoint: "localhost:9000", Region: "us-east-1", Bucket: "b",
		AccessKey: "k", SecretKey: "s", ForcePathStyle: true, Prefix: "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "p/x", b.key("x"))
}

func TestHealth(t *testing.T) {
	var status atomic.Int32
	var lastPath atomic.Value
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath.Store(r.Method + " " + r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	b, err := New(context.Background(), ClientConfig{
		Endpoint: srv.URL, Region: "us-east-1", Bucket: "market-data",
		AccessKey: "k", SecretKey: "s", ForcePathStyle: true,
	})
	require.NoError(t, err)

	require.NoError(t, b.Health(context.Background()))
	assert.Equal(t, "HEAD /market-data", lastPath.Load())

	status.Store(http.StatusForbidden)
	err = b.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market-data")
}
