// Package huestream implements the Hue Entertainment streaming protocol:
// the HueStream v2 frame codec and a session that claims an entertainment
// zone over REST and streams frames over an encrypted datagram transport.
package huestream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bft-labs/lumux/internal/domain"
)

// Wire constants of HueStream v2.
const (
	Protocol     = "HueStream"
	VersionMajor = 0x02
	VersionMinor = 0x00
	Port         = 2100

	// HeaderSize is the length of the fixed frame header.
	HeaderSize = 52

	// RecordSize is the length of one channel record.
	RecordSize = 7

	zoneIDSize = 36
)

// ColorSpace selects how channel records encode color.
type ColorSpace uint8

const (
	ColorSpaceRGB ColorSpace = 0x00
	ColorSpaceXY  ColorSpace = 0x01
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceXY:
		return "xy"
	default:
		return fmt.Sprintf("colorspace(%d)", uint8(c))
	}
}

// Header is the decoded fixed part of a frame.
type Header struct {
	VersionMajor uint8
	VersionMinor uint8
	Sequence     uint8
	ColorSpace   ColorSpace
	ZoneID       string
}

// ErrShortFrame is returned by ParseHeader for truncated input.
var ErrShortFrame = errors.New("huestream: frame shorter than header")

// ErrBadProtocol is returned by ParseHeader when the magic is missing.
var ErrBadProtocol = errors.New("huestream: not a HueStream frame")

// FrameSize returns the length of a frame with n channels.
func FrameSize(n int) int { return HeaderSize + n*RecordSize }

func appendHeader(dst []byte, seq uint8, cs ColorSpace, zoneID string) []byte {
	dst = append(dst, Protocol...)
	dst = append(dst, VersionMajor, VersionMinor, seq, 0x00, 0x00, byte(cs), 0x00)

	id := zoneID
	if len(id) > zoneIDSize {
		id = id[:zoneIDSize]
	}
	dst = append(dst, id...)
	for i := len(id); i < zoneIDSize; i++ {
		dst = append(dst, 0x00)
	}
	return dst
}

// AppendXY appends an XY+brightness frame to dst. channels must be in
// ascending order; channels missing from colors are sent as zero.
func AppendXY(dst []byte, seq uint8, zoneID string, channels []uint8, colors map[uint8]domain.DeviceColor) []byte {
	dst = appendHeader(dst, seq, ColorSpaceXY, zoneID)
	for _, id := range channels {
		c := colors[id]
		dst = append(dst, id)
		dst = binary.BigEndian.AppendUint16(dst, unit16(c.X))
		dst = binary.BigEndian.AppendUint16(dst, unit16(c.Y))
		dst = binary.BigEndian.AppendUint16(dst, brightness16(c.Brightness))
	}
	return dst
}

// AppendRGB appends an RGB frame to dst with 16 bits per component.
// channels must be in ascending order; missing channels are sent as zero.
func AppendRGB(dst []byte, seq uint8, zoneID string, channels []uint8, colors map[uint8]domain.RGB) []byte {
	dst = appendHeader(dst, seq, ColorSpaceRGB, zoneID)
	for _, id := range channels {
		c := colors[id]
		dst = append(dst, id)
		dst = binary.BigEndian.AppendUint16(dst, unit16(c.R/255))
		dst = binary.BigEndian.AppendUint16(dst, unit16(c.G/255))
		dst = binary.BigEndian.AppendUint16(dst, unit16(c.B/255))
	}
	return dst
}

// ParseHeader decodes the fixed header of a frame.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortFrame
	}
	if string(b[:len(Protocol)]) != Protocol {
		return Header{}, ErrBadProtocol
	}
	id := b[16:HeaderSize]
	end := len(id)
	for end > 0 && id[end-1] == 0 {
		end--
	}
	return Header{
		VersionMajor: b[9],
		VersionMinor: b[10],
		Sequence:     b[11],
		ColorSpace:   ColorSpace(b[14]),
		ZoneID:       string(id[:end]),
	}, nil
}

// unit16 scales a value in [0, 1] to [0, 65535].
func unit16(v float64) uint16 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return math.MaxUint16
	}
	return uint16(v * math.MaxUint16)
}

// brightness16 scales a brightness in [0, 254] by 257.
func brightness16(b float64) uint16 {
	if b <= 0 || math.IsNaN(b) {
		return 0
	}
	if b > domain.MaxBrightness {
		b = domain.MaxBrightness
	}
	return uint16(b * 257)
}
