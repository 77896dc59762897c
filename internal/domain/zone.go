package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Edge names a side of the screen in ring layouts.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// GridPrefix prefixes zone ids produced by the grid layout ("grid_r_c").
const GridPrefix = "grid"

// ZoneID formats a ring zone key such as "left_3".
func ZoneID(edge Edge, index int) string {
	return string(edge) + "_" + strconv.Itoa(index)
}

// GridZoneID formats a grid zone key such as "grid_1_4".
func GridZoneID(row, col int) string {
	return fmt.Sprintf("%s_%d_%d", GridPrefix, row, col)
}

// ParseZoneID splits a ring zone key into its edge and index.
func ParseZoneID(id string) (Edge, int, bool) {
	name, idx, ok := strings.Cut(id, "_")
	if !ok {
		return "", 0, false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return "", 0, false
	}
	switch e := Edge(name); e {
	case EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		return e, i, true
	}
	return "", 0, false
}

// ParseGridZoneID splits a grid zone key into row and column.
func ParseGridZoneID(id string) (row, col int, ok bool) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != GridPrefix {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(parts[1])
	c, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || r < 0 || c < 0 {
		return 0, 0, false
	}
	return r, c, true
}
