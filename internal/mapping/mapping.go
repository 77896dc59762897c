// Package mapping assigns screen zones to entertainment channels by position
// and folds zone colors into per-channel colors.
package mapping

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bft-labs/lumux/internal/domain"
)

// Mapping is a zone to channel assignment built for one topology. It is
// read-only once built.
type Mapping struct {
	byZone map[string]uint8
	key    string
}

// Build assigns every zone to the channel whose (x, z) position is nearest to
// the zone's place on screen. Ties go to the lowest channel id. Zones whose
// position cannot be derived, and all zones when no channel reports a
// position, go to the lowest channel id. With no channels the mapping is empty.
func Build(zoneIDs []string, channels []domain.ChannelInfo) *Mapping {
	m := &Mapping{
		byZone: make(map[string]uint8, len(zoneIDs)),
		key:    fingerprint(zoneIDs, channels),
	}
	if len(channels) == 0 {
		return m
	}

	sorted := make([]domain.ChannelInfo, len(channels))
	copy(sorted, channels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	first := sorted[0].ID

	var positioned []domain.ChannelInfo
	for _, ch := range sorted {
		if ch.Position != nil {
			positioned = append(positioned, ch)
		}
	}

	layout := newLayout(zoneIDs)
	for _, id := range zoneIDs {
		target, ok := layout.position(id)
		if !ok || len(positioned) == 0 {
			m.byZone[id] = first
			continue
		}
		m.byZone[id] = nearest(target, positioned)
	}
	return m
}

func nearest(target r2.Vec, channels []domain.ChannelInfo) uint8 {
	best := channels[0].ID
	bestDist := math.Inf(1)
	for _, ch := range channels {
		p := r2.Vec{X: ch.Position.X, Y: ch.Position.Z}
		if d := r2.Norm(r2.Sub(target, p)); d < bestDist {
			best, bestDist = ch.ID, d
		}
	}
	return best
}

// Channel returns the channel assigned to a zone.
func (m *Mapping) Channel(zoneID string) (uint8, bool) {
	if m == nil {
		return 0, false
	}
	ch, ok := m.byZone[zoneID]
	return ch, ok
}

// Zones returns a copy of the assignment.
func (m *Mapping) Zones() map[string]uint8 {
	out := make(map[string]uint8, len(m.byZone))
	for k, v := range m.byZone {
		out[k] = v
	}
	return out
}

// Current reports whether the mapping was built for exactly these zones and
// this topology. A mapping referring to channels that no longer exist, or
// built before channels were added or moved, is stale.
func (m *Mapping) Current(zoneIDs []string, channels []domain.ChannelInfo) bool {
	return m != nil && m.key == fingerprint(zoneIDs, channels)
}

// Aggregate folds zone colors into channel colors. Zones sharing a channel
// are averaged component-wise. Zones without an assignment are ignored.
func (m *Mapping) Aggregate(colors map[string]domain.DeviceColor) map[uint8]domain.DeviceColor {
	type acc struct {
		x, y, b float64
		n       int
	}
	sums := make(map[uint8]*acc)
	for id, c := range colors {
		ch, ok := m.Channel(id)
		if !ok {
			continue
		}
		a := sums[ch]
		if a == nil {
			a = &acc{}
			sums[ch] = a
		}
		a.x += c.X
		a.y += c.Y
		a.b += c.Brightness
		a.n++
	}

	out := make(map[uint8]domain.DeviceColor, len(sums))
	for ch, a := range sums {
		n := float64(a.n)
		out[ch] = domain.DeviceColor{
			XY:         domain.XY{X: a.x / n, Y: a.y / n},
			Brightness: a.b / n,
		}
	}
	return out
}

func fingerprint(zoneIDs []string, channels []domain.ChannelInfo) string {
	ids := make([]string, len(zoneIDs))
	copy(ids, zoneIDs)
	sort.Strings(ids)

	chs := make([]domain.ChannelInfo, len(channels))
	copy(chs, channels)
	sort.Slice(chs, func(i, j int) bool { return chs[i].ID < chs[j].ID })

	var b strings.Builder
	b.WriteString(strings.Join(ids, ","))
	b.WriteByte('|')
	for _, ch := range chs {
		fmt.Fprintf(&b, "%d", ch.ID)
		if ch.Position != nil {
			fmt.Fprintf(&b, "@%g,%g,%g", ch.Position.X, ch.Position.Y, ch.Position.Z)
		}
		b.WriteByte(';')
	}
	return b.String()
}
