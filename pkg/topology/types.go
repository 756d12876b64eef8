package topology

// Port is a connection point on a device as supplied by the data source.
type Port struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Node is a device record as supplied by the data source.
type Node struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Model string `json:"model" yaml:"model"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
	Ports []Port `json:"ports" yaml:"ports"`
}

// Endpoint references one end of a cable by device and port id.
type Endpoint struct {
	ID   string `json:"id" yaml:"id"`
	Port string `json:"port" yaml:"port"`
}

// Link is a cable record as supplied by the data source. Source and target
// are presentational only; cables are undirected.
type Link struct {
	ID     string   `json:"id,omitempty" yaml:"id,omitempty"`
	Source Endpoint `json:"source" yaml:"source"`
	Target Endpoint `json:"target" yaml:"target"`
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Color  string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// Data is the inbound contract: a node list and a link list.
type Data struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}
