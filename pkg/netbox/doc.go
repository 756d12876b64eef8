// Package netbox reads cabling topologies from the NetBox REST API.
//
// [Client.FilterOptions] lists the sites, locations and racks a diagram can
// be scoped to. [Client.GraphData] turns the devices of one selection into
// [topology.Data]: each device becomes a node whose ports are its
// interfaces, and each cable between two selected interfaces becomes a
// link.
//
//	client, err := netbox.NewClient(url, token, cache.NewNullCache(), time.Minute)
//	data, err := client.GraphData(ctx, netbox.Filter{Site: "fra1"}, false)
//
// Records with missing fields get defaults: unnamed devices are called
// "Device <id>", a missing device type or role reads "Unknown", an
// unlabelled cable is labelled "#<id>" and an uncolored one is drawn in
// [DefaultColor].
package netbox
