package netbox

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/topology"
)

// Defaults applied to incomplete NetBox records.
const (
	UnknownValue = "Unknown"
	DefaultColor = "#333333"
)

// interfaceType is the termination object type of a device interface.
const interfaceType = "dcim.interface"

// Site is a NetBox site as offered in the filter dropdown.
type Site struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SiteRef points at the site a location or rack belongs to.
type SiteRef struct {
	ID int `json:"id"`
}

// Location is a NetBox location.
type Location struct {
	ID   int      `json:"id"`
	Name string   `json:"name"`
	Site *SiteRef `json:"site"`
}

// Rack is a NetBox rack.
type Rack struct {
	ID   int      `json:"id"`
	Name string   `json:"name"`
	Site *SiteRef `json:"site"`
}

// FilterOptions lists the choices for the site, location and rack filters,
// each sorted by name.
type FilterOptions struct {
	Sites     []Site     `json:"sites"`
	Locations []Location `json:"locations"`
	Racks     []Rack     `json:"racks"`
}

// Filter selects the devices of a diagram. Site is a slug and required;
// Location and Rack are numeric ids and optional.
type Filter struct {
	Site     string `json:"site"`
	Location string `json:"location,omitempty"`
	Rack     string `json:"rack,omitempty"`
}

// Validate checks the filter fields.
func (f Filter) Validate() error {
	if f.Site == "" {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "site is required")
	}
	if err := kerrors.ValidateSite(f.Site); err != nil {
		return err
	}
	if err := kerrors.ValidateID("location", f.Location); err != nil {
		return err
	}
	return kerrors.ValidateID("rack", f.Rack)
}

// FilterOptions fetches sites, locations and racks concurrently.
func (c *Client) FilterOptions(ctx context.Context, refresh bool) (*FilterOptions, error) {
	var (
		sites     []apiRef
		locations []Location
		racks     []Rack
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sites, err = list[apiRef](gctx, c, "dcim/sites", nil, refresh)
		return err
	})
	g.Go(func() (err error) {
		locations, err = list[Location](gctx, c, "dcim/locations", nil, refresh)
		return err
	})
	g.Go(func() (err error) {
		racks, err = list[Rack](gctx, c, "dcim/racks", nil, refresh)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := &FilterOptions{
		Sites:     make([]Site, 0, len(sites)),
		Locations: locations,
		Racks:     racks,
	}
	for _, s := range sites {
		opts.Sites = append(opts.Sites, Site{ID: s.ID, Name: s.Name, Slug: s.Slug})
	}
	if opts.Locations == nil {
		opts.Locations = []Location{}
	}
	if opts.Racks == nil {
		opts.Racks = []Rack{}
	}
	slices.SortStableFunc(opts.Sites, func(a, b Site) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortStableFunc(opts.Locations, func(a, b Location) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortStableFunc(opts.Racks, func(a, b Rack) int { return cmp.Compare(a.Name, b.Name) })
	return opts, nil
}

// GraphData fetches the devices selected by f, their interfaces and the
// cables running between them. Cables with a termination that is not an
// interface of a selected device are left out.
func (c *Client) GraphData(ctx context.Context, f Filter, refresh bool) (topology.Data, error) {
	if err := f.Validate(); err != nil {
		return topology.Data{}, err
	}
	start := time.Now()

	params := url.Values{"site": {f.Site}}
	if f.Location != "" {
		params.Set("location_id", f.Location)
	}
	if f.Rack != "" {
		params.Set("rack_id", f.Rack)
	}
	devices, err := list[apiDevice](ctx, c, "dcim/devices", params, refresh)
	if err != nil {
		return topology.Data{}, err
	}
	data := topology.Data{Nodes: []topology.Node{}, Links: []topology.Link{}}
	if len(devices) == 0 {
		return data, nil
	}

	index := make(map[int]int, len(devices))
	ids := make([]int, 0, len(devices))
	for _, d := range devices {
		index[d.ID] = len(data.Nodes)
		ids = append(ids, d.ID)
		data.Nodes = append(data.Nodes, deviceNode(d))
	}

	interfaces, err := c.interfaces(ctx, ids, refresh)
	if err != nil {
		return topology.Data{}, err
	}
	for _, iface := range interfaces {
		if iface.Device == nil {
			continue
		}
		if i, ok := index[iface.Device.ID]; ok {
			data.Nodes[i].Ports = append(data.Nodes[i].Ports, topology.Port{
				ID:   strconv.Itoa(iface.ID),
				Name: iface.Name,
			})
		}
	}

	cables, err := list[apiCable](ctx, c, "dcim/cables", url.Values{"site": {f.Site}}, refresh)
	if err != nil {
		return topology.Data{}, err
	}
	for _, cable := range cables {
		src, ok := endpoint(cable.ATerminations, index)
		if !ok {
			continue
		}
		dst, ok := endpoint(cable.BTerminations, index)
		if !ok {
			continue
		}
		data.Links = append(data.Links, topology.Link{
			ID:     strconv.Itoa(cable.ID),
			Source: src,
			Target: dst,
			Label:  cableLabel(cable),
			Color:  NormalizeColor(cable.Color),
		})
	}

	c.logger.Info("fetched graph data", "site", f.Site, "devices", len(data.Nodes),
		"links", len(data.Links), "duration", time.Since(start))
	return data, nil
}

// interfaces fetches the interfaces of ids in chunks to keep request URLs
// short. Chunks run concurrently and results keep chunk order.
func (c *Client) interfaces(ctx context.Context, ids []int, refresh bool) ([]apiInterface, error) {
	chunks := slices.Collect(slices.Chunk(ids, c.chunkSize))
	parts := make([][]apiInterface, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, chunk := range chunks {
		params := url.Values{}
		for _, id := range chunk {
			params.Add("device_id", strconv.Itoa(id))
		}
		g.Go(func() (err error) {
			parts[i], err = list[apiInterface](gctx, c, "dcim/interfaces", params, refresh)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(parts...), nil
}

func deviceNode(d apiDevice) topology.Node {
	n := topology.Node{
		ID:    strconv.Itoa(d.ID),
		Name:  "Device " + strconv.Itoa(d.ID),
		Model: UnknownValue,
		Role:  UnknownValue,
		Ports: []topology.Port{},
	}
	if d.Name != nil && *d.Name != "" {
		n.Name = *d.Name
	}
	if d.DeviceType != nil && d.DeviceType.Model != "" {
		n.Model = d.DeviceType.Model
	}
	if r := cmp.Or(d.Role, d.DeviceRole); r != nil && r.Name != "" {
		n.Role = r.Name
	}
	return n
}

// endpoint resolves the first termination of a cable side to a device port.
func endpoint(terms []apiTermination, index map[int]int) (topology.Endpoint, bool) {
	if len(terms) == 0 {
		return topology.Endpoint{}, false
	}
	t := terms[0]
	if t.ObjectType != interfaceType || t.Object == nil || t.Object.Device == nil {
		return topology.Endpoint{}, false
	}
	if _, ok := index[t.Object.Device.ID]; !ok {
		return topology.Endpoint{}, false
	}
	port := t.ObjectID
	if port == 0 {
		port = t.Object.ID
	}
	return topology.Endpoint{
		ID:   strconv.Itoa(t.Object.Device.ID),
		Port: strconv.Itoa(port),
	}, true
}

func cableLabel(c apiCable) string {
	if c.Label != "" {
		return c.Label
	}
	return "#" + strconv.Itoa(c.ID)
}

// NormalizeColor turns a NetBox color ("ff0000") into a CSS hex color.
// An empty color yields [DefaultColor].
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	switch {
	case color == "":
		return DefaultColor
	case strings.HasPrefix(color, "#"):
		return color
	default:
		return "#" + color
	}
}
