package topology_test

import (
	"fmt"

	"github.com/matzehuels/kabelplan/pkg/topology"
)

func ExampleBuild() {
	data := topology.Data{
		Nodes: []topology.Node{
			{ID: "1", Name: "core", Model: "C9300", Ports: []topology.Port{{ID: "11", Name: "Gi1"}, {ID: "12", Name: "Gi2"}}},
			{ID: "2", Name: "edge", Model: "C9200", Ports: []topology.Port{{ID: "21", Name: "Gi1"}}},
		},
		Links: []topology.Link{
			{Source: topology.Endpoint{ID: "1", Port: "12"}, Target: topology.Endpoint{ID: "2", Port: "21"}},
			{Source: topology.Endpoint{ID: "1", Port: "11"}, Target: topology.Endpoint{ID: "9", Port: "91"}},
		},
	}

	m, err := topology.Build(data)
	if err != nil {
		panic(err)
	}
	ref, _ := m.Port("12")
	fmt.Println("devices:", m.DeviceCount())
	fmt.Println("cables:", m.CableCount())
	fmt.Println("port 12:", ref.Side, ref.Slot)
	// Output:
	// devices: 2
	// cables: 1
	// port 12: right 0
}
