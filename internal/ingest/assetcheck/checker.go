// internal/ingest/assetcheck/checker.go
package assetcheck

import (
	"context"
	"net/url"
	"sync"
	"time"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"
)

type Config struct {
	ProbeTimeout time.Duration
}

// Checker verifies every asset reference on a record is reachable.
// Probes for one record run concurrently, each under its own timeout;
// one unreachable asset never aborts checks on sibling assets.
type Checker struct {
	config  *Config
	probers map[string]Prober
	logger  logger.Logger
}

func NewChecker(config *Config, probers map[string]Prober, log logger.Logger) *Checker {
	return &Checker{
		config:  config,
		probers: probers,
		logger:  log.WithFields(map[string]interface{}{"component": "asset-checker"}),
	}
}

// CheckAssets returns a partial verdict covering asset reachability only.
// Reasons come back in asset declaration order regardless of probe
// completion order.
func (c *Checker) CheckAssets(ctx context.Context, record models.Record) models.ValidationVerdict {
	if len(record.Assets) == 0 {
		return models.ValidVerdict()
	}

	probeErrs := make([]error, len(record.Assets))
	var wg sync.WaitGroup

	for i, asset := range record.Assets {
		wg.Add(1)
		go func(idx int, href string) {
			defer wg.Done()
			probeErrs[idx] = c.probeOne(ctx, href)
		}(i, asset.Href)
	}
	wg.Wait()

	var reasons []models.Reason
	for i, err := range probeErrs {
		if err == nil {
			continue
		}
		stdErr := errors.Normalize(err)
		reasons = append(reasons, models.Reason{
			Check:   models.CheckAsset,
			Field:   record.Assets[i].Href,
			Code:    string(stdErr.Code),
			Message: stdErr.Message + ": " + stdErr.Details,
		})
	}

	if len(reasons) > 0 {
		c.logger.Debug("asset check failed", map[string]interface{}{
			"itemId":      record.ID,
			"assetCount":  len(record.Assets),
			"reasonCount": len(reasons),
		})
		return models.InvalidVerdict(reasons...)
	}
	return models.ValidVerdict()
}

func (c *Checker) probeOne(ctx context.Context, href string) error {
	scheme := hrefScheme(href)
	prober, ok := c.probers[scheme]
	if !ok {
		return errors.NewAssetUnreachableError(href, errSchemeUnsupported(scheme))
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := prober.Probe(probeCtx, href)
	metrics.AssetProbeDuration.WithLabelValues(scheme).Observe(time.Since(start).Seconds())

	result := "reachable"
	if err != nil {
		result = string(errors.Normalize(err).Code)
	}
	metrics.AssetProbes.WithLabelValues(scheme, result).Inc()

	return err
}

func hrefScheme(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Scheme
}

type errSchemeUnsupported string

func (e errSchemeUnsupported) Error() string {
	return "no prober registered for scheme " + string(e)
}
