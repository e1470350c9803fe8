package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/model"
)

const defaultReviewTTL = 10 * time.Minute

// ReviewCache memoizes credit assessments by request fingerprint.
type ReviewCache struct {
	store Store
	ttl   time.Duration
}

// NewReviewCache creates a ReviewCache over store.
func NewReviewCache(store Store, ttl time.Duration) *ReviewCache {
	if ttl <= 0 {
		ttl = defaultReviewTTL
	}
	return &ReviewCache{store: store, ttl: ttl}
}

// Fingerprint is a stable hash of the scoring input.
func Fingerprint(req model.LoanRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", eris.Wrap(err, "cache: fingerprint request")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func reviewKey(fp string) string { return "review:" + fp }

// Get returns the cached assessment for req. Misses and store failures both
// report false; failures are logged.
func (c *ReviewCache) Get(ctx context.Context, req model.LoanRequest) (*model.Assessment, bool) {
	fp, err := Fingerprint(req)
	if err != nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, reviewKey(fp))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Warn("cache: review lookup failed", zap.Error(err))
		}
		return nil, false
	}
	var a model.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		zap.L().Warn("cache: corrupt review entry", zap.String("fingerprint", fp), zap.Error(err))
		return nil, false
	}
	return &a, true
}

// Put stores a for req.
func (c *ReviewCache) Put(ctx context.Context, req model.LoanRequest, a *model.Assessment) error {
	fp, err := Fingerprint(req)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "cache: marshal assessment")
	}
	return c.store.Set(ctx, reviewKey(fp), raw, c.ttl)
}
