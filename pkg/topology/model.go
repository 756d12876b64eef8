// Package topology is the in-memory model of one loaded cable plan: devices,
// their ports and the cables between them.
//
// A [Model] is built from the flat inbound [Data] by [Build]. Building indexes
// devices by id and ports by id, assigns every port a side and slot through
// the ports package, and filters out cables that reference devices which are
// not part of the view. Models are immutable once built and are rebuilt from
// scratch on every load.
package topology

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/ports"
)

// Device box dimensions.
const (
	DeviceWidth     = 140.0 // fixed box width
	DeviceMinHeight = 60.0  // floor for devices with few ports
	PortPitch       = 20.0  // vertical space reserved per port
)

var (
	// ErrEmpty is returned by [Build] when the node list is empty. Callers
	// should treat it as "nothing to render" rather than as a failed load.
	ErrEmpty = errors.New("no devices in selection")
)

// DropReason explains why a cable did not make it into the model as-is.
type DropReason int

const (
	// DropUnknownDevice means the source or target device is not in the view.
	DropUnknownDevice DropReason = iota
	// DropUnknownPort means the device exists but the port does not. The
	// cable is kept and attached to the device body unless strict port
	// checking is enabled.
	DropUnknownPort
)

func (r DropReason) String() string {
	if r == DropUnknownPort {
		return "unknown port"
	}
	return "unknown device"
}

// Drop records a cable that referenced something missing.
type Drop struct {
	Index  int    // position in the inbound link list
	LinkID string // link id, if the source supplied one
	Reason DropReason
	Ref    Endpoint // the offending endpoint
	Kept   bool     // true when the cable was kept with a body anchor
}

func (d Drop) String() string {
	return fmt.Sprintf("link %d (%s): %s %s/%s", d.Index, d.LinkID, d.Reason, d.Ref.ID, d.Ref.Port)
}

// DevicePort is a port with its assigned side and slot.
type DevicePort struct {
	ID       string
	Name     string
	DeviceID string
	Index    int
	Side     ports.Side
	Slot     int
}

// Device is an indexed device. Ports are in original order.
type Device struct {
	ID    string
	Name  string
	Model string
	Role  string
	Ports []DevicePort
}

// Width returns the device box width.
func (d *Device) Width() float64 { return DeviceWidth }

// Height returns the device box height: a floor of DeviceMinHeight, growing
// by PortPitch per port so that all ports fit without overlap.
func (d *Device) Height() float64 {
	return max(DeviceMinHeight, PortPitch*float64(len(d.Ports)))
}

// SideCount returns the number of ports on side.
func (d *Device) SideCount(side ports.Side) int {
	n := 0
	for _, p := range d.Ports {
		if p.Side == side {
			n++
		}
	}
	return n
}

// PortRef locates a port in the model.
type PortRef struct {
	DeviceID string
	Index    int
	Side     ports.Side
	Slot     int
}

// CableEnd is a resolved cable endpoint. When Attached is false the port id
// did not resolve and the cable attaches to the device body.
type CableEnd struct {
	DeviceID string
	PortID   string
	Attached bool
}

// Cable is a cable whose device references have been verified.
type Cable struct {
	ID     string
	Index  int
	Source CableEnd
	Target CableEnd
	Label  string
	Color  string
}

// SelfLoop reports whether both ends are on the same device.
func (c Cable) SelfLoop() bool { return c.Source.DeviceID == c.Target.DeviceID }

// Model is the indexed topology of one load.
type Model struct {
	devices []*Device
	byID    map[string]*Device
	ports   map[string]PortRef
	cables  []Cable
	data    Data

	// Dropped lists every cable that referenced a missing device or port.
	Dropped []Drop
}

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger      *log.Logger
	strictPorts bool
}

// WithLogger sets the logger used for diagnostics about dropped records.
func WithLogger(l *log.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrictPorts drops cables whose port id does not resolve instead of
// attaching them to the device body.
func WithStrictPorts() BuildOption {
	return func(c *buildConfig) { c.strictPorts = true }
}

// Build indexes data into a Model. It returns ErrEmpty when data has no
// nodes. Links with unresolvable device references are dropped and logged;
// they never fail the build.
func Build(data Data, opts ...BuildOption) (*Model, error) {
	cfg := buildConfig{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(data.Nodes) == 0 {
		return nil, ErrEmpty
	}

	m := &Model{
		byID:  make(map[string]*Device, len(data.Nodes)),
		ports: make(map[string]PortRef),
		data:  data,
	}

	for _, n := range data.Nodes {
		if n.ID == "" {
			cfg.logger.Debug("skipping device without id", "name", n.Name)
			continue
		}
		if _, dup := m.byID[n.ID]; dup {
			cfg.logger.Debug("skipping duplicate device", "id", n.ID)
			continue
		}
		d := &Device{ID: n.ID, Name: n.Name, Model: n.Model, Role: n.Role}
		// Sides follow the original index so a skipped port does not
		// flip the ports after it; slots count only the kept ports.
		var slots [2]int
		for i, p := range n.Ports {
			if _, dup := m.ports[p.ID]; dup || p.ID == "" {
				cfg.logger.Debug("skipping duplicate port", "device", n.ID, "port", p.ID)
				continue
			}
			a := ports.Assign(i)
			a.Slot = slots[a.Side]
			slots[a.Side]++
			d.Ports = append(d.Ports, DevicePort{
				ID:       p.ID,
				Name:     p.Name,
				DeviceID: n.ID,
				Index:    a.Index,
				Side:     a.Side,
				Slot:     a.Slot,
			})
			m.ports[p.ID] = PortRef{DeviceID: n.ID, Index: a.Index, Side: a.Side, Slot: a.Slot}
		}
		m.devices = append(m.devices, d)
		m.byID[d.ID] = d
	}
	if len(m.devices) == 0 {
		return nil, ErrEmpty
	}

	for i, l := range data.Links {
		src, srcErr := m.resolve(l.Source)
		dst, dstErr := m.resolve(l.Target)

		var drops []Drop
		fatal := false
		for _, r := range []struct {
			ep  Endpoint
			err *DropReason
		}{{l.Source, srcErr}, {l.Target, dstErr}} {
			if r.err == nil {
				continue
			}
			drops = append(drops, Drop{Index: i, LinkID: l.ID, Reason: *r.err, Ref: r.ep})
			if *r.err == DropUnknownDevice || cfg.strictPorts {
				fatal = true
			}
		}
		for _, d := range drops {
			d.Kept = !fatal
			m.Dropped = append(m.Dropped, d)
			cfg.logger.Debug("dangling cable reference", "link", d.Index, "id", d.LinkID,
				"reason", d.Reason.String(), "device", d.Ref.ID, "port", d.Ref.Port, "kept", d.Kept)
		}
		if fatal {
			continue
		}

		m.cables = append(m.cables, Cable{
			ID:     l.ID,
			Index:  i,
			Source: src,
			Target: dst,
			Label:  l.Label,
			Color:  l.Color,
		})
	}

	if n := m.DroppedCount(); n > 0 {
		cfg.logger.Debug("dropped cables", "count", n)
	}
	return m, nil
}

func (m *Model) resolve(ep Endpoint) (CableEnd, *DropReason) {
	if _, ok := m.byID[ep.ID]; !ok {
		r := DropUnknownDevice
		return CableEnd{}, &r
	}
	if ref, ok := m.ports[ep.Port]; ok && ref.DeviceID == ep.ID {
		return CableEnd{DeviceID: ep.ID, PortID: ep.Port, Attached: true}, nil
	}
	r := DropUnknownPort
	return CableEnd{DeviceID: ep.ID, PortID: ep.Port}, &r
}

// DroppedCount returns the number of links that were excluded from the model.
func (m *Model) DroppedCount() int {
	seen := make(map[int]bool)
	for _, d := range m.Dropped {
		if !d.Kept {
			seen[d.Index] = true
		}
	}
	return len(seen)
}

// Devices returns the devices in input order.
func (m *Model) Devices() []*Device { return m.devices }

// Device returns the device with id.
func (m *Model) Device(id string) (*Device, bool) {
	d, ok := m.byID[id]
	return d, ok
}

// Port returns the location of the port with id.
func (m *Model) Port(id string) (PortRef, bool) {
	ref, ok := m.ports[id]
	return ref, ok
}

// Cables returns the cables that survived reference checking, in input order.
func (m *Model) Cables() []Cable { return m.cables }

// DeviceCount returns the number of devices.
func (m *Model) DeviceCount() int { return len(m.devices) }

// CableCount returns the number of cables.
func (m *Model) CableCount() int { return len(m.cables) }

// Data returns the inbound data the model was built from.
func (m *Model) Data() Data { return m.data }
