// Package pipeline runs the build-and-bind stages in order:
// capability selection, native build, link resolution, shim compilation
// and binding generation. Every stage blocks on its external tool and the
// first fatal error aborts the run.
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goplus/recastbind/internal/bindgen"
	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/link"
	"github.com/goplus/recastbind/internal/native"
	"github.com/goplus/recastbind/internal/platform"
	"github.com/goplus/recastbind/internal/shim"
)

// Pipeline holds the stage drivers and the paths of one project.
type Pipeline struct {
	SourceDir string // recastnavigation checkout
	ShimDir   string // inline.cc and inline.h
	OutDir    string

	Native  *native.Driver
	Shim    *shim.Compiler
	Bindgen *bindgen.Bindgen

	MinBindgenVersion string
	BindingExt        string

	// Force ignores the input stamp; DryRun neither reads nor writes it.
	Force  bool
	DryRun bool

	Logger *log.Logger
}

// Input is what the invoking build supplies for one run.
type Input struct {
	Capabilities    capability.Set
	Profile         platform.Profile
	ProfileWarnings []string
	// Defines are user macros added after the capability defines.
	Defines *capability.DefineSet
}

// Result describes a finished run.
type Result struct {
	Selection  capability.Selection
	Artifacts  *native.Artifacts
	Directives *link.Directives
	ShimBuilt  bool
	Bindings   []string
	UpToDate   bool
}

// envInputs are the environment values a rerun depends on.
var envInputs = []string{
	platform.EnvProfile,
	platform.EnvTarget,
	platform.EnvOptLevel,
	platform.EnvToolchain,
	platform.EnvRustToolchain,
}

// Run executes the pipeline. The DefineSet of the selection is created once
// and handed unchanged to the native build, the shim compiler and the
// binding generator.
func (p *Pipeline) Run(in Input) (*Result, error) {
	logger := p.logger()
	sel := capability.Select(in.Capabilities, in.Profile)
	if in.Defines.Len() > 0 {
		sel.Defines = sel.Defines.Merge(in.Defines)
	}
	res := &Result{Selection: sel}

	var warnings []string
	warnings = append(warnings, in.ProfileWarnings...)
	warnings = append(warnings, sel.Warnings...)

	logger.Info("selected", "capabilities", in.Capabilities, "profile", in.Profile.Key())
	if sel.Empty() {
		logger.Info("no module selected; nothing to build")
		res.Directives = p.finish(link.Resolve(sel, nil, in.Profile.Target), warnings, nil, false)
		return res, nil
	}

	fp, err := p.fingerprint(sel, in.Profile)
	if err != nil {
		return nil, fmt.Errorf("fingerprint inputs: %w", err)
	}
	st := &stamp{}
	if !p.DryRun {
		if loaded, err := loadStamp(p.OutDir); err == nil {
			st = loaded
		}
		if e, ok := st.get(in.Profile.Key()); ok && !p.Force && e.upToDate(fp) {
			logger.Info("up to date", "out", p.OutDir)
			// Warnings belong to this run, plus the generator warnings
			// the fingerprinted profile implies.
			d := *e.Directives
			d.Warnings = nil
			for _, w := range append(warnings, e.Warnings...) {
				logger.Warn(w)
				d.Warn(w)
			}
			res.Directives = &d
			res.Bindings = e.Outputs
			res.UpToDate = true
			return res, nil
		}
	}

	if !p.DryRun {
		if w := p.Bindgen.CheckVersion(p.MinBindgenVersion); w != "" {
			warnings = append(warnings, w)
		}
	}

	logger.Info("building native modules", "source", p.SourceDir, "defines", sel.Defines.String())
	art, err := p.Native.Build(p.SourceDir, p.OutDir, sel.Defines, in.Profile)
	if err != nil {
		return nil, err
	}
	res.Artifacts = art
	d := link.Resolve(sel, art, in.Profile.Target)

	if shim.Needed(sel) {
		logger.Info("compiling shim", "markers", sel.Markers().String())
		out, err := p.Shim.Compile(p.ShimDir, p.OutDir, art.IncludeRoots, sel.Defines, sel.Markers(), in.Profile)
		if err != nil {
			return nil, err
		}
		d.AddStatic(out.Dir, out.Lib)
		res.ShimBuilt = true
	}

	gen := &bindgen.Generator{
		Tool:         p.Bindgen,
		IncludeRoots: art.IncludeRoots,
		Defines:      sel.Defines,
		Profile:      in.Profile,
		OutDir:       filepath.Join(p.OutDir, "bindings"),
		Ext:          p.BindingExt,
		Logger:       logger,
		DryRun:       p.DryRun,
	}
	for _, m := range sel.Modules {
		desc, ok := bindgen.Lookup(m.Capability)
		if !ok {
			return nil, fmt.Errorf("no binding descriptor for %s", m.Capability)
		}
		out, err := gen.Module(desc)
		if err != nil {
			return nil, err
		}
		res.Bindings = append(res.Bindings, out)
	}
	if res.ShimBuilt {
		out, err := gen.Shim(p.ShimDir, sel.Markers())
		if err != nil {
			return nil, err
		}
		res.Bindings = append(res.Bindings, out)
	}
	warnings = append(warnings, gen.Warnings()...)
	res.Directives = p.finish(d, warnings, gen.Inputs(), res.ShimBuilt)

	if !p.DryRun {
		saved := *res.Directives
		saved.Warnings = nil
		st.set(in.Profile.Key(), &stampEntry{
			Fingerprint: fp,
			Outputs:     res.Bindings,
			Directives:  &saved,
			Warnings:    gen.Warnings(),
			BuildTime:   time.Now(),
		})
		if err := saveStamp(p.OutDir, st); err != nil {
			logger.Warn("cannot save stamp", "err", err)
		}
	}
	return res, nil
}

// finish attaches rerun triggers and warnings to d.
func (p *Pipeline) finish(d *link.Directives, warnings, headers []string, shimBuilt bool) *link.Directives {
	d.RerunIfChanged = append(d.RerunIfChanged, p.SourceDir)
	if shimBuilt {
		d.RerunIfChanged = append(d.RerunIfChanged, p.ShimDir)
	}
	d.RerunIfChanged = append(d.RerunIfChanged, headers...)
	d.RerunIfEnvChanged = append(d.RerunIfEnvChanged, envInputs...)
	for _, w := range warnings {
		p.logger().Warn(w)
		d.Warn(w)
	}
	return d
}

func (p *Pipeline) fingerprint(sel capability.Selection, profile platform.Profile) (string, error) {
	if p.DryRun {
		return "", nil
	}
	dirs := []string{p.SourceDir}
	if shim.Needed(sel) {
		dirs = append(dirs, p.ShimDir)
	}
	return fingerprint(
		dirs,
		profile.Target, profile.Key(), profile.Toolchain,
		sel.Set.String(), sel.Defines.String(), sel.Suffix,
		p.Bindgen.Bin, p.BindingExt, p.Shim.CXX, p.Native.CMake,
	)
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}
