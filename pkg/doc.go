// Package pkg holds the kabelplan libraries.
//
// # Overview
//
// Kabelplan turns a list of network devices and the cables between their
// ports into a diagram: devices are placed by a layout strategy, ports are
// anchored on the device sides, cables are routed around the devices and
// the result is drawn as SVG, PNG or PDF through a pan and zoom viewport.
//
// # Architecture
//
// The data flows through these packages:
//
//	NetBox REST API ([netbox]) or a JSON/YAML file ([topology])
//	         ↓
//	    [topology] model (devices, ports, cables, dropped links)
//	         ↓
//	    [layout] positions   →   [ports] side anchors
//	         ↓
//	    [route] cable paths around device boxes
//	         ↓
//	    [scene] drawable diagram
//	         ↓
//	    [viewport] transform   →   [export] SVG/PNG/PDF
//
// [pipeline] runs these stages with caching ([cache]); [session] keeps one
// scene and its viewport across requests; [server] exposes both over HTTP.
//
// # Supporting Packages
//
//   - [config]: TOML configuration with environment overrides
//   - [errors]: coded errors and HTTP status mapping
//   - [httputil]: cached, retrying HTTP client
//   - [observability]: hook registry and Prometheus metrics
//   - [geom], [dag], [fonts]: geometry, layering and text metrics
//   - [buildinfo]: version information set at link time
package pkg
