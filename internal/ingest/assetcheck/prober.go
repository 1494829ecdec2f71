// internal/ingest/assetcheck/prober.go
package assetcheck

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stac-ingestor/internal/common/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Prober issues one lightweight existence check against an asset location.
// A nil return means reachable; failures come back as *errors.StandardError
// with an asset error code.
type Prober interface {
	Probe(ctx context.Context, href string) error
}

// HeadClient is the subset of the HTTP client used for probing.
type HeadClient interface {
	Head(ctx context.Context, url string) (*http.Response, error)
}

// HTTPProber probes http(s) asset locations with a HEAD request.
type HTTPProber struct {
	client HeadClient
}

func NewHTTPProber(client HeadClient) *HTTPProber {
	return &HTTPProber{client: client}
}

func (p *HTTPProber) Probe(ctx context.Context, href string) error {
	resp, err := p.client.Head(ctx, href)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || stderrors.Is(err, context.DeadlineExceeded) {
			return errors.NewAssetProbeTimeoutError(href)
		}
		return errors.NewAssetUnreachableError(href, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.NewAssetAccessDeniedError(href)
	default:
		return errors.NewAssetUnreachableError(href, fmt.Errorf("status %d", resp.StatusCode))
	}
}

// HeadObjectAPI is the subset of the S3 client used for probing.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
}

// S3Prober probes s3:// asset locations with a HeadObject call.
type S3Prober struct {
	client HeadObjectAPI
}

func NewS3Prober(client HeadObjectAPI) *S3Prober {
	return &S3Prober{client: client}
}

func (p *S3Prober) Probe(ctx context.Context, href string) error {
	bucket, key, err := splitS3URI(href)
	if err != nil {
		return errors.NewAssetUnreachableError(href, err)
	}

	_, err = p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAssetProbeTimeoutError(href)
	}

	var notFound *s3types.NotFound
	if stderrors.As(err, &notFound) {
		return errors.NewAssetUnreachableError(href, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Forbidden", "AccessDenied":
			return errors.NewAssetAccessDeniedError(href)
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return errors.NewAssetUnreachableError(href, err)
		}
	}

	return errors.NewAssetUnreachableError(href, err)
}

func splitS3URI(href string) (bucket, key string, err error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", href)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 uri %q has no object key", href)
	}
	return u.Host, key, nil
}
