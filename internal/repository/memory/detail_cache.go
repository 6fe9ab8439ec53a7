package memory

import (
	"time"

	"ai-caller-be/pkg/knowledge/resolver"

	"github.com/patrickmn/go-cache"
)

// DetailCache keeps resolved document details for a short time so that
// reopening a document in the console does not re-run the content chain.
type DetailCache struct {
	cache *cache.Cache
}

func NewDetailCache(ttl time.Duration) *DetailCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DetailCache{cache: cache.New(ttl, 2*ttl)}
}

func (r *DetailCache) Save(detail *resolver.Detail) {
	r.cache.Set(detail.DocumentID, detail, cache.DefaultExpiration)
}

func (r *DetailCache) Get(documentID string) (*resolver.Detail, bool) {
	if x, found := r.cache.Get(documentID); found {
		return x.(*resolver.Detail), true
	}
	return nil, false
}

func (r *DetailCache) Invalidate(documentID string) {
	r.cache.Delete(documentID)
}
