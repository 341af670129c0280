package safe

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrInvalidRegex is returned when a pattern cannot be compiled.
var ErrInvalidRegex = errors.New("invalid regular expression")

// maxCacheSize bounds the cache. Patterns come from configuration, so the
// whole cache is dropped once the bound is reached rather than evicting.
const maxCacheSize = 1024

var (
	regexMu    sync.RWMutex
	regexCache = make(map[string]*regexp.Regexp)
)

func cacheLoad(key string) (*regexp.Regexp, bool) {
	regexMu.RLock()
	defer regexMu.RUnlock()

	re, ok := regexCache[key]

	return re, ok
}

func cacheStore(key string, re *regexp.Regexp) {
	regexMu.Lock()
	defer regexMu.Unlock()

	if len(regexCache) >= maxCacheSize {
		regexCache = make(map[string]*regexp.Regexp)
	}

	regexCache[key] = re
}

// Compile compiles pattern with an error return instead of a panic.
// Compiled patterns are cached.
//
// Example:
//
//	re, err := safe.Compile(cfg.BlockedMerchantPattern)
//	if err != nil {
//	    return fmt.Errorf("blocked merchant pattern: %w", err)
//	}
//	blocked := re.MatchString(req.Merchant)
func Compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := cacheLoad(pattern); ok {
		return cached, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegex, err)
	}

	cacheStore(pattern, re)

	return re, nil
}
