// internal/ingest/assetcheck/checker_test.go
package assetcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stac-ingestor/internal/common/errors"
	httpclient "stac-ingestor/internal/common/http"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeS3 struct {
	err error
}

func (f *fakeS3) HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.HeadObjectOutput{}, nil
}

func newChecker(t *testing.T, probers map[string]Prober) *Checker {
	return NewChecker(&Config{ProbeTimeout: 2 * time.Second}, probers, logger.NewTestLogger(t))
}

func recordWithAssets(hrefs ...string) models.Record {
	assets := make([]models.AssetReference, 0, len(hrefs))
	for _, href := range hrefs {
		assets = append(assets, models.AssetReference{Href: href})
	}
	return models.Record{
		ID:         "item-001",
		Collection: "sentinel-2-l2a",
		Assets:     assets,
	}
}

// ==========================
// HTTP Prober Tests
// ==========================

func TestHTTPProber_Probe(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		expectedCode errors.ErrorCode
	}{
		{name: "ok", status: http.StatusOK},
		{name: "redirect", status: http.StatusFound},
		{name: "forbidden", status: http.StatusForbidden, expectedCode: errors.ErrCodeAssetAccessDenied},
		{name: "unauthorized", status: http.StatusUnauthorized, expectedCode: errors.ErrCodeAssetAccessDenied},
		{name: "not found", status: http.StatusNotFound, expectedCode: errors.ErrCodeAssetUnreachable},
		{name: "server error", status: http.StatusInternalServerError, expectedCode: errors.ErrCodeAssetUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			prober := NewHTTPProber(httpclient.NewClient(time.Second))
			err := prober.Probe(context.Background(), server.URL+"/data/item.tif")

			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			stdErr := errors.Normalize(err)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
		})
	}
}

func TestHTTPProber_Probe_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	prober := NewHTTPProber(httpclient.NewClient(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := prober.Probe(ctx, server.URL)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAssetProbeTimeout, errors.Normalize(err).Code)
}

// ==========================
// S3 Prober Tests
// ==========================

func TestS3Prober_Probe(t *testing.T) {
	tests := []struct {
		name         string
		href         string
		s3Err        error
		expectedCode errors.ErrorCode
	}{
		{
			name: "reachable object",
			href: "s3://my-bucket/data/item.tif",
		},
		{
			name:         "access denied",
			href:         "s3://my-bucket/data/item.tif",
			s3Err:        &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			expectedCode: errors.ErrCodeAssetAccessDenied,
		},
		{
			name:         "missing key",
			href:         "s3://my-bucket/data/item.tif",
			s3Err:        &smithy.GenericAPIError{Code: "NotFound", Message: "no such key"},
			expectedCode: errors.ErrCodeAssetUnreachable,
		},
		{
			name:         "missing bucket",
			href:         "s3://my-bucket/data/item.tif",
			s3Err:        &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "no such bucket"},
			expectedCode: errors.ErrCodeAssetUnreachable,
		},
		{
			name:         "malformed uri",
			href:         "s3://bucket-with-no-key",
			expectedCode: errors.ErrCodeAssetUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := NewS3Prober(&fakeS3{err: tt.s3Err})

			err := prober.Probe(context.Background(), tt.href)

			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, errors.Normalize(err).Code)
		})
	}
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://my-bucket/path/to/item.tif")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/item.tif", key)

	_, _, err = splitS3URI("https://example.com/item.tif")
	assert.Error(t, err)
}

// ==========================
// Checker Tests
// ==========================

func TestChecker_CheckAssets_AllReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpProber := NewHTTPProber(httpclient.NewClient(time.Second))
	checker := newChecker(t, map[string]Prober{
		"http": httpProber,
		"s3":   NewS3Prober(&fakeS3{}),
	})

	record := recordWithAssets(server.URL+"/a.tif", "s3://my-bucket/b.tif")
	verdict := checker.CheckAssets(context.Background(), record)

	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Reasons)
}

func TestChecker_CheckAssets_OneFailureDoesNotMaskOthers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := newChecker(t, map[string]Prober{
		"http": NewHTTPProber(httpclient.NewClient(time.Second)),
		"s3":   NewS3Prober(&fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied"}}),
	})

	record := recordWithAssets(
		server.URL+"/a.tif",
		"s3://my-bucket/denied.tif",
		server.URL+"/c.tif",
	)
	verdict := checker.CheckAssets(context.Background(), record)

	assert.False(t, verdict.Valid)
	require.Len(t, verdict.Reasons, 1)
	assert.Equal(t, models.CheckAsset, verdict.Reasons[0].Check)
	assert.Equal(t, "s3://my-bucket/denied.tif", verdict.Reasons[0].Field)
	assert.Equal(t, string(errors.ErrCodeAssetAccessDenied), verdict.Reasons[0].Code)
}

func TestChecker_CheckAssets_ReasonsFollowDeclarationOrder(t *testing.T) {
	checker := newChecker(t, map[string]Prober{
		"s3": NewS3Prober(&fakeS3{err: &smithy.GenericAPIError{Code: "NotFound"}}),
	})

	record := recordWithAssets(
		"s3://my-bucket/a.tif",
		"s3://my-bucket/b.tif",
		"s3://my-bucket/c.tif",
	)

	for i := 0; i < 5; i++ {
		verdict := checker.CheckAssets(context.Background(), record)
		require.Len(t, verdict.Reasons, 3)
		assert.Equal(t, "s3://my-bucket/a.tif", verdict.Reasons[0].Field)
		assert.Equal(t, "s3://my-bucket/b.tif", verdict.Reasons[1].Field)
		assert.Equal(t, "s3://my-bucket/c.tif", verdict.Reasons[2].Field)
	}
}

func TestChecker_CheckAssets_UnsupportedScheme(t *testing.T) {
	checker := newChecker(t, map[string]Prober{})

	verdict := checker.CheckAssets(context.Background(), recordWithAssets("ftp://example.com/a.tif"))

	assert.False(t, verdict.Valid)
	require.Len(t, verdict.Reasons, 1)
	assert.Equal(t, string(errors.ErrCodeAssetUnreachable), verdict.Reasons[0].Code)
}

func TestChecker_CheckAssets_NoAssets(t *testing.T) {
	checker := newChecker(t, map[string]Prober{})

	verdict := checker.CheckAssets(context.Background(), models.Record{ID: "item-001"})

	assert.True(t, verdict.Valid)
}
