package hierarchical

import (
	"math"

	"github.com/baumann-freiburg/mapf-core/internal/grid"
	"github.com/baumann-freiburg/mapf-core/internal/gridmap"
)

// Region is a rectangular section of the map, identified by a linear
// index in row-major order starting at the lower-left corner.
type Region struct {
	Index                  int
	HighLevelPos           grid.Position
	MinX, MinY, MaxX, MaxY int
}

// Contains reports whether pos lies within this region's bounds.
func (r Region) Contains(pos grid.Position) bool {
	return r.MinX <= pos.X && pos.X <= r.MaxX && r.MinY <= pos.Y && pos.Y <= r.MaxY
}

// Container divides a map into (almost) equally sized regions and
// tracks which map edges cross a region border (spec §4.7).
type Container struct {
	Regions              []Region
	HorizontalCount      int
	VerticalCount        int
	HorizontalRegionSize int
	VerticalRegionSize   int
	BorderEdges          map[[2]grid.Position]bool
}

// NewContainer partitions a width x height map into ceil(sqrt(dim))
// regions per axis, mirroring the Java hierarchical planner's region
// sizing.
func NewContainer(width, height int) *Container {
	hCount := ceilSqrt(width)
	vCount := ceilSqrt(height)
	hSize := ceilDiv(width, hCount)
	vSize := ceilDiv(height, vCount)

	c := &Container{
		HorizontalCount:      hCount,
		VerticalCount:        vCount,
		HorizontalRegionSize: hSize,
		VerticalRegionSize:   vSize,
		BorderEdges:          make(map[[2]grid.Position]bool),
	}

	for v := 0; v < vCount; v++ {
		for h := 0; h < hCount; h++ {
			idx := v*hCount + h
			c.Regions = append(c.Regions, Region{
				Index:        idx,
				HighLevelPos: grid.Position{X: h, Y: v},
				MinX:         h * hSize,
				MinY:         v * vSize,
				MaxX:         (h+1)*hSize - 1,
				MaxY:         (v+1)*vSize - 1,
			})
		}
	}
	return c
}

func ceilSqrt(n int) int {
	if n <= 0 {
		return 1
	}
	r := int(math.Ceil(math.Sqrt(float64(n))))
	if r < 1 {
		r = 1
	}
	return r
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// RegionIndex returns the index of the region containing pos.
func (c *Container) RegionIndex(pos grid.Position) int {
	h := pos.X / c.HorizontalRegionSize
	v := pos.Y / c.VerticalRegionSize
	return v*c.HorizontalCount + h
}

func (c *Container) addBorderEdge(e grid.Edge) {
	c.BorderEdges[e.Key()] = true
}

func (c *Container) isBorderEdge(e grid.Edge) bool {
	return c.BorderEdges[e.Key()]
}

// insertEdges classifies every map edge as internal to a region (no
// action needed for our purposes) or a border edge between regions.
func insertEdges(c *Container, m *gridmap.Map) {
	for _, e := range m.Edges {
		src := c.RegionIndex(e.Source)
		dst := c.RegionIndex(e.Target)
		if src != dst {
			c.addBorderEdge(e)
		}
	}
}

// directRegionBorders removes edges created by Map.Undirect() that now
// happen to lie on a region border, since the hierarchical planner
// assumes inter-region edges are directed (spec §4.7, grounded on
// EnhancedHierarchicalPlanner.directRegionBorders).
func directRegionBorders(c *Container, m *gridmap.Map) *gridmap.Map {
	pruned := gridmap.NewMap(m.Width, m.Height, nil)
	for _, e := range m.Edges {
		if !c.isBorderEdge(e) || !e.Copy {
			pruned.Edges[e.Key()] = e
		}
	}
	for p := range m.Obstacles {
		pruned.AddObstacle(p)
	}
	for p := range m.ParkingSpots {
		pruned.AddParkingSpot(p)
	}
	return pruned
}

// buildContainer partitions mm's map into regions and prunes
// border-crossing copy edges, returning the container and a map
// manager over the pruned map.
func buildContainer(mm *gridmap.MapManager) (*Container, *gridmap.MapManager) {
	c := NewContainer(mm.Map.Width, mm.Map.Height)
	insertEdges(c, mm.Map)
	pruned := directRegionBorders(c, mm.Map)
	return c, gridmap.NewMapManager(pruned, mm.DirectionChangeFrequency)
}
