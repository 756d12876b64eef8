package cache

// ScopedKeyer puts Prefix in front of every key built by the embedded
// Keyer, so several NetBox instances can share one Redis database.
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer scopes inner, or the [DefaultKeyer] when inner is nil.
//
//	keyer := cache.NewScopedKeyer(nil, "netbox.example.com:")
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

func (k ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.Prefix + k.Keyer.HTTPKey(namespace, key)
}

func (k ScopedKeyer) GraphKey(opts GraphKeyOpts) string {
	return k.Prefix + k.Keyer.GraphKey(opts)
}

func (k ScopedKeyer) ArtifactKey(dataHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Keyer.ArtifactKey(dataHash, opts)
}
