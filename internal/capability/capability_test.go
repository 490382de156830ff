package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goplus/recastbind/internal/platform"
)

var (
	release = platform.Profile{Target: "x86_64-unknown-linux-gnu", OS: "linux", Opt: platform.Release}
	debug   = platform.Profile{Target: "x86_64-unknown-linux-gnu", OS: "linux", Opt: platform.Debug}
)

func TestParse(t *testing.T) {
	s, err := Parse([]string{"detour_crowd", "Mesh-Build", " ", "detour_large_nav_meshes"})
	require.NoError(t, err)
	assert.Equal(t, Of(MeshBuild, CrowdPathfinding, WideReferenceMode), s)
	assert.Equal(t, "{mesh-build, crowd-pathfinding, wide-reference-mode}", s.String())

	_, err = Parse([]string{"navmesh"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
}

// Every subset of the five capabilities yields one module per selected
// module-selecting capability, in declaration order.
func TestSelectModuleCount(t *testing.T) {
	for bits := 0; bits < 1<<numCapabilities; bits++ {
		set := Set(bits)
		sel := Select(set, release)

		want := 0
		for _, c := range []Capability{MeshBuild, PathfindingCore, CrowdPathfinding, TileCachePathfinding} {
			if set.Has(c) {
				want++
			}
		}
		require.Len(t, sel.Modules, want, "set %s", set)

		for i := 1; i < len(sel.Modules); i++ {
			assert.Less(t, int(sel.Modules[i-1].Capability), int(sel.Modules[i].Capability), "order for %s", set)
		}
		assert.Equal(t, set.Has(WideReferenceMode), sel.Defines.Has(WideRefDefine))
		assert.Equal(t, set.Has(MeshBuild) || set.Has(TileCachePathfinding), sel.NeedsShim(), "shim for %s", set)
	}
}

func TestSelectEmpty(t *testing.T) {
	sel := Select(0, release)
	assert.True(t, sel.Empty())
	assert.Equal(t, 0, sel.Defines.Len())
	assert.Empty(t, sel.Libraries())
	assert.False(t, sel.NeedsShim())
	assert.Empty(t, sel.Warnings)
}

func TestSelectSuffix(t *testing.T) {
	all := Of(MeshBuild, PathfindingCore, CrowdPathfinding, TileCachePathfinding)

	assert.Equal(t, []string{"Recast", "Detour", "DetourCrowd", "DetourTileCache"}, Select(all, release).Libraries())
	assert.Equal(t, []string{"Recast-d", "Detour-d", "DetourCrowd-d", "DetourTileCache-d"}, Select(all, debug).Libraries())

	// An unrecognized opt-level captures as release.
	p, warnings, err := platform.Capture(func(k string) (string, bool) {
		return map[string]string{"TARGET": "x86_64-unknown-linux-gnu", "OPT_LEVEL": "9", "TOOLCHAIN": "stable"}[k], true
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Empty(t, Select(all, p).Suffix)
}

func TestSelectMeshBuildWide(t *testing.T) {
	sel := Select(Of(WideReferenceMode, MeshBuild), release)
	require.Len(t, sel.Modules, 1)
	assert.Equal(t, "Recast", sel.Modules[0].Name)
	assert.Equal(t, []string{"-DDT_POLYREF64"}, sel.Defines.Args())
	assert.Equal(t, []string{"-DRECAST"}, sel.Markers().Args())
	assert.True(t, sel.NeedsShim())
}

func TestSelectDependencyWarning(t *testing.T) {
	sel := Select(Of(CrowdPathfinding, TileCachePathfinding), release)
	assert.Len(t, sel.Warnings, 2)

	sel = Select(Of(PathfindingCore, CrowdPathfinding), release)
	assert.Empty(t, sel.Warnings)
}
