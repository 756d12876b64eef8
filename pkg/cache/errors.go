package cache

import "errors"

// ErrCacheMiss is returned by [GetJSON] when the key is not cached.
var ErrCacheMiss = errors.New("cache miss")
