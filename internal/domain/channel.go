package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Position is a channel location reported by the bridge, each axis in [-1, 1].
// X runs left to right, Y front to back, Z bottom to top.
type Position struct {
	X, Y, Z float64
}

// ChannelInfo describes one streaming channel of an entertainment zone.
type ChannelInfo struct {
	ID uint8

	// Position is nil when the bridge did not report one.
	Position *Position

	// MemberLightIDs are the resource ids of the lights driven by the channel.
	MemberLightIDs []string
}

// Topology is an entertainment zone as delivered by the bridge. It is
// immutable for the duration of a streaming session.
type Topology struct {
	// ZoneID is the entertainment configuration UUID, used verbatim on the wire.
	ZoneID string

	// Name is the human readable configuration name, if known.
	Name string

	Channels []ChannelInfo
}

// SortedChannels returns a copy of the channels ordered by ascending id.
func (t Topology) SortedChannels() []ChannelInfo {
	out := make([]ChannelInfo, len(t.Channels))
	copy(out, t.Channels)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChannelIDs returns the channel ids in ascending order.
func (t Topology) ChannelIDs() []uint8 {
	ids := make([]uint8, 0, len(t.Channels))
	for _, ch := range t.SortedChannels() {
		ids = append(ids, ch.ID)
	}
	return ids
}

// LightIDs returns the distinct member light ids across all channels.
func (t Topology) LightIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ch := range t.SortedChannels() {
		for _, id := range ch.MemberLightIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// ValidateZoneID checks that id is a canonical 36 character UUID string.
func ValidateZoneID(id string) error {
	if len(id) != 36 {
		return ErrInvalidZoneID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidZoneID
	}
	return nil
}
