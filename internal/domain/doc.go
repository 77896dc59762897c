// Package domain contains the core entities and value objects for lumux.
//
// This package is the innermost layer of the pipeline. It has no dependencies
// on capture, network or logging infrastructure and holds only the data that
// flows from the screen to the lights, plus the rules that keep that data
// within range.
//
// # Entities
//
//   - [Frame]: a captured RGB raster
//   - [CropRegion]: fractional pixel insets removing letterbox/pillarbox bars
//   - [RGB], [XY], [DeviceColor]: zone colors before and after conversion
//   - [Gamut]: the reachable xy triangle of a light
//   - [ChannelInfo], [Topology]: the entertainment zone as reported by the bridge
//   - [Settings]: tunable sync parameters, clamped at the boundary
package domain
