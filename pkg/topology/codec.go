package topology

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input formats accepted by [Decode].
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFromPath infers the input format from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads topology data in the given format.
func Decode(r io.Reader, format string) (Data, error) {
	var data Data
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return Data{}, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil && err != io.EOF {
			return Data{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Data{}, fmt.Errorf("unsupported topology format: %s", format)
	}
	return data, nil
}

// Load reads topology data from a JSON or YAML file.
func Load(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, err
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// Encode writes data as indented JSON.
func Encode(w io.Writer, data Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Hash returns a stable SHA-256 over the canonical JSON encoding of data.
func Hash(data Data) string {
	b, _ := json.Marshal(data)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Hash returns the hash of the data the model was built from.
func (m *Model) Hash() string { return Hash(m.data) }
