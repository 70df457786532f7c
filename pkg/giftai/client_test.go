package giftai

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/craftloom/craftloom-backend/pkg/config"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	client, err := NewClient(config.GiftAIConfig{BaseURL: baseURL, Timeout: timeout}, logg)
	require.NoError(t, err)
	return client
}

func TestGenerateBundleSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, bundlePath, r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "housewarming", r.FormValue("occasion"))

		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		require.Equal(t, "mood.jpg", header.Filename)

		w.Write([]byte(`{"success":true,"data":{"bundle_id":"bdl_42","occasion":"housewarming","bundles":[{"title":"Warm Welcome","items":[{"title":"Ceramic Planter"},{"catalog_id":"0d1de2cd-4701-4366-b9e6-52d969476f25","title":"Jute Doormat"}]}]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 5*time.Second)
	result, err := client.GenerateBundle(context.Background(), BundleParams{
		Occasion:  "housewarming",
		Budget:    2500,
		ImageName: "mood.jpg",
		Image:     strings.NewReader("fake-image-bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "bdl_42", result.BundleID)
	require.Len(t, result.Bundles, 1)
	require.Equal(t, "Warm Welcome", result.Bundles[0].Title)
	require.Len(t, result.Bundles[0].Items, 2)
	require.Equal(t, "0d1de2cd-4701-4366-b9e6-52d969476f25", result.Bundles[0].Items[1].CatalogID)
}

func TestGenerateBundleUpstreamFailureFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"model overloaded"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 5*time.Second)
	_, err := client.GenerateBundle(context.Background(), BundleParams{Occasion: "birthday"})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.True(t, pkgerrors.As(err, &domainErr))
	require.Equal(t, pkgerrors.CodeUpstream, domainErr.Code())
	require.Contains(t, domainErr.Message(), "model overloaded")
}

func TestGenerateBundleTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 20*time.Millisecond)
	_, err := client.GenerateBundle(context.Background(), BundleParams{Occasion: "birthday"})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.True(t, pkgerrors.As(err, &domainErr))
	require.Equal(t, pkgerrors.CodeUpstreamTimeout, domainErr.Code())
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, searchPath, r.URL.Path)
		require.Equal(t, "block print scarf", r.URL.Query().Get("q"))
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"success":true,"data":[{"title":"Indigo Block Print Scarf","score":0.91}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 5*time.Second)
	results, err := client.Search(context.Background(), "block print scarf", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Indigo Block Print Scarf", results[0].Title)
}

func TestSearchRequiresQuery(t *testing.T) {
	client := newTestClient(t, "http://localhost:0", time.Second)
	_, err := client.Search(context.Background(), "  ", 5)
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.True(t, pkgerrors.As(err, &domainErr))
	require.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}
