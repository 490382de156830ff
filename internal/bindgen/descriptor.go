package bindgen

import "github.com/goplus/recastbind/internal/capability"

// Descriptor is the static binding configuration of one module. Modules
// include each other's headers, so every descriptor after the first blocks
// the files and types another module's binding file already defines.
type Descriptor struct {
	Capability     capability.Capability
	Headers        []string // probed in the include roots, in this order
	BlocklistFiles []string // regular expressions
	BlocklistTypes []string
	Output         string // file stem
}

// Applied to every module binding.
var (
	commonBlocklistFiles = []string{`.*stddef\.h`}
	commonBlocklistTypes = []string{"max_align_t"}
)

// Descriptors lists one entry per module-selecting capability.
var Descriptors = []Descriptor{
	{
		Capability: capability.MeshBuild,
		Headers:    []string{"Recast.h"},
		Output:     "recast",
	},
	{
		Capability: capability.PathfindingCore,
		Headers: []string{
			"DetourAlloc.h",
			"DetourStatus.h",
			"DetourNavMesh.h",
			"DetourNavMeshBuilder.h",
			"DetourNavMeshQuery.h",
		},
		Output: "detour",
	},
	{
		Capability: capability.CrowdPathfinding,
		Headers:    []string{"DetourCrowd.h"},
		BlocklistFiles: []string{
			`.*DetourAlloc\.h`,
			`.*DetourNavMesh\.h`,
			`.*DetourNavMeshQuery\.h`,
			`.*DetourStatus\.h`,
		},
		Output: "detour_crowd",
	},
	{
		Capability: capability.TileCachePathfinding,
		Headers:    []string{"DetourTileCache.h", "DetourTileCacheBuilder.h"},
		BlocklistFiles: []string{
			`.*DetourAlloc\.h`,
			`.*DetourStatus\.h`,
		},
		BlocklistTypes: []string{"dtNavMesh", "dtNavMeshCreateParams"},
		Output:         "detour_tile_cache",
	},
}

// Lookup returns the descriptor of c.
func Lookup(c capability.Capability) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Capability == c {
			return d, true
		}
	}
	return Descriptor{}, false
}
