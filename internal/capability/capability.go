// Package capability turns the enabled feature flags into the list of native
// modules to link and bind, the shared DefineSet and the library suffix.
package capability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goplus/recastbind/internal/platform"
)

// Capability is one optional feature switch.
type Capability uint8

const (
	MeshBuild Capability = iota
	PathfindingCore
	CrowdPathfinding
	TileCachePathfinding
	WideReferenceMode

	numCapabilities
)

var capNames = [numCapabilities]string{
	"mesh-build",
	"pathfinding-core",
	"crowd-pathfinding",
	"tile-cache-pathfinding",
	"wide-reference-mode",
}

// aliases accepts the feature names used by the upstream crate.
var aliases = map[string]Capability{
	"recast":                  MeshBuild,
	"detour":                  PathfindingCore,
	"detour_crowd":            CrowdPathfinding,
	"detour-crowd":            CrowdPathfinding,
	"detour_tile_cache":       TileCachePathfinding,
	"detour-tile-cache":       TileCachePathfinding,
	"detour_large_nav_meshes": WideReferenceMode,
	"detour-large-nav-meshes": WideReferenceMode,
}

func (c Capability) String() string {
	if c < numCapabilities {
		return capNames[c]
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// ErrUnknown is returned by Parse for unrecognized capability names.
var ErrUnknown = errors.New("unknown capability")

// Lookup resolves a canonical name or alias.
func Lookup(name string) (Capability, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range capNames {
		if n == name {
			return Capability(i), true
		}
	}
	c, ok := aliases[name]
	return c, ok
}

// All returns every capability in declaration order.
func All() []Capability {
	out := make([]Capability, 0, numCapabilities)
	for c := Capability(0); c < numCapabilities; c++ {
		out = append(out, c)
	}
	return out
}

// -----------------------------------------------------------------------------

// Set is a set of capabilities.
type Set uint8

// Of returns the set holding caps.
func Of(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// Parse builds a set from names. Empty entries are ignored.
func Parse(names []string) (Set, error) {
	var s Set
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, ok := Lookup(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
		}
		s = s.With(c)
	}
	return s, nil
}

func (s Set) Has(c Capability) bool { return s&(1<<c) != 0 }

func (s Set) With(c Capability) Set { return s | 1<<c }

// Capabilities returns the members in declaration order.
func (s Set) Capabilities() []Capability {
	var out []Capability
	for _, c := range All() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s Set) String() string {
	caps := s.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// -----------------------------------------------------------------------------

// Module is one native library of the navigation family.
type Module struct {
	Capability Capability
	Name       string // library root name, also the source subdirectory
	Marker     string // shim marker define
	NeedsShim  bool   // exposes inline-only entry points
}

// Modules lists the native modules in fixed declaration order. Link order
// and binding order follow this table, never the order of the input flags.
var Modules = []Module{
	{Capability: MeshBuild, Name: "Recast", Marker: "RECAST", NeedsShim: true},
	{Capability: PathfindingCore, Name: "Detour", Marker: "DETOUR"},
	{Capability: CrowdPathfinding, Name: "DetourCrowd", Marker: "DETOUR_CROWD"},
	{Capability: TileCachePathfinding, Name: "DetourTileCache", Marker: "DETOUR_TILE_CACHE", NeedsShim: true},
}

const (
	// WideRefDefine widens dtPolyRef and dtTileRef to 64 bits.
	WideRefDefine = "DT_POLYREF64"

	// DebugSuffix is appended to library names of debug builds.
	DebugSuffix = "-d"
)

// Selection is the output of Select.
type Selection struct {
	Set      Set
	Modules  []Module
	Defines  *DefineSet
	Suffix   string
	Warnings []string
}

// Select derives the modules, defines and naming suffix for set.
//
// A module that depends on pathfinding-core types is passed through when
// pathfinding-core itself is not selected; a warning is recorded and the
// header parser decides the outcome.
func Select(set Set, profile platform.Profile) Selection {
	sel := Selection{Set: set, Defines: NewDefineSet()}
	for _, m := range Modules {
		if set.Has(m.Capability) {
			sel.Modules = append(sel.Modules, m)
		}
	}
	if set.Has(WideReferenceMode) {
		sel.Defines.Flag(WideRefDefine)
	}
	if profile.IsDebug() {
		sel.Suffix = DebugSuffix
	}
	if !set.Has(PathfindingCore) {
		for _, c := range []Capability{CrowdPathfinding, TileCachePathfinding} {
			if set.Has(c) {
				sel.Warnings = append(sel.Warnings, fmt.Sprintf(
					"%s is enabled without %s; its bindings reference types that will not be generated", c, PathfindingCore))
			}
		}
	}
	return sel
}

// Empty reports whether no module was selected.
func (s Selection) Empty() bool { return len(s.Modules) == 0 }

// Has reports whether the module of c is selected.
func (s Selection) Has(c Capability) bool {
	for _, m := range s.Modules {
		if m.Capability == c {
			return true
		}
	}
	return false
}

// NeedsShim reports whether any selected module has inline-only entry points.
func (s Selection) NeedsShim() bool {
	for _, m := range s.Modules {
		if m.NeedsShim {
			return true
		}
	}
	return false
}

// Libraries returns the static library names in module order.
func (s Selection) Libraries() []string {
	libs := make([]string, len(s.Modules))
	for i, m := range s.Modules {
		libs[i] = m.Name + s.Suffix
	}
	return libs
}

// Markers returns the shim marker defines, one per selected module.
func (s Selection) Markers() *DefineSet {
	d := NewDefineSet()
	for _, m := range s.Modules {
		d.Flag(m.Marker)
	}
	return d
}
