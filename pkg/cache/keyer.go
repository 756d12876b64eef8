package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys. Keys are prefixed by their type ("http",
// "graph", "artifact") so backends and metrics can tell them apart.
type Keyer interface {
	// HTTPKey is the key of a raw upstream response.
	HTTPKey(namespace, key string) string
	// GraphKey is the key of assembled graph data for a filter.
	GraphKey(opts GraphKeyOpts) string
	// ArtifactKey is the key of a rendered diagram.
	ArtifactKey(dataHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts identifies a NetBox selection.
type GraphKeyOpts struct {
	Site     string `json:"site"`
	Location string `json:"location,omitempty"`
	Rack     string `json:"rack,omitempty"`
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Layout string `json:"layout,omitempty"`
	Router string `json:"router,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	NoFit  bool   `json:"no_fit,omitempty"`
	// StrictPorts drops cables to unknown ports; Site titles the SVG.
	StrictPorts bool   `json:"strict_ports,omitempty"`
	Site        string `json:"site,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// GraphKey hashes the selection.
func (DefaultKeyer) GraphKey(opts GraphKeyOpts) string {
	return digestKey("graph", opts)
}

// ArtifactKey hashes the data hash with the render settings.
func (DefaultKeyer) ArtifactKey(dataHash string, opts ArtifactKeyOpts) string {
	return digestKey("artifact", dataHash, opts)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestKey returns "<kind>:<digest>" over the JSON encoding of parts.
// The parts are plain structs and strings, which always encode.
func digestKey(kind string, parts ...any) string {
	enc, _ := json.Marshal(parts)
	return kind + ":" + Hash(enc)
}
