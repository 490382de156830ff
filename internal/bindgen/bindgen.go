// Package bindgen generates one binding file per selected module, plus one
// for the shim header, by driving an external header-to-bindings tool.
package bindgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/goplus/recastbind/internal/capability"
	"github.com/goplus/recastbind/internal/platform"
	"github.com/goplus/recastbind/internal/shim"
)

// ErrHeaderNotFound means a required header is missing from every include
// root, which points at a broken native tree.
var ErrHeaderNotFound = errors.New("header not found in include roots")

// ThiscallWarning is reported when generating for 32-bit Windows without a
// nightly toolchain.
const ThiscallWarning = `Windows 32 bit uses the "thiscall" ABI. This feature is not enabled, so compilation may fail! Consider using a nightly toolchain, which enables this feature.`

// Request is one invocation of the binding tool.
type Request struct {
	Header               string
	Output               string
	ClangArgs            []string
	BlocklistFiles       []string
	BlocklistTypes       []string
	AllowlistFiles       []string
	NoRecursiveAllowlist bool
	RustTarget           string
}

// Tool turns a Request into a binding file.
type Tool interface {
	Generate(req Request) error
}

// FindHeader returns the first <root>/<name> that exists, probing roots in
// order.
func FindHeader(roots []string, name string) (string, error) {
	for _, root := range roots {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrHeaderNotFound, name)
}

// Generator holds what every request of one run shares.
type Generator struct {
	Tool         Tool
	IncludeRoots []string
	Defines      *capability.DefineSet
	Profile      platform.Profile
	OutDir       string
	Ext          string // output extension without dot, default "rs"
	Logger       *log.Logger
	// DryRun skips writing umbrella headers and output directories.
	DryRun bool

	inputs   []string
	warnings []string
	warned   bool
}

// Module generates the binding file of d and returns its path.
func (g *Generator) Module(d Descriptor) (string, error) {
	headers := make([]string, 0, len(d.Headers))
	for _, name := range d.Headers {
		p, err := FindHeader(g.IncludeRoots, name)
		if err != nil {
			return "", fmt.Errorf("%s bindings: %w", d.Capability, err)
		}
		headers = append(headers, p)
	}
	header, err := g.primaryHeader(d.Output, headers)
	if err != nil {
		return "", err
	}

	req := g.baseRequest(header, d.Output, g.Defines)
	req.BlocklistFiles = append(append(req.BlocklistFiles, commonBlocklistFiles...), d.BlocklistFiles...)
	req.BlocklistTypes = append(append(req.BlocklistTypes, commonBlocklistTypes...), d.BlocklistTypes...)
	if err := g.run(req); err != nil {
		return "", fmt.Errorf("%s bindings: %w", d.Capability, err)
	}
	g.inputs = append(g.inputs, headers...)
	return req.Output, nil
}

// Shim generates bindings for the shim header only. The allowlist holds
// exactly that file and is not followed into included module headers,
// which their own binding files already cover.
func (g *Generator) Shim(shimDir string, markers *capability.DefineSet) (string, error) {
	header, err := FindHeader([]string{shimDir}, shim.HeaderFile)
	if err != nil {
		return "", fmt.Errorf("shim bindings: %w", err)
	}
	req := g.baseRequest(header, "inline", g.Defines.Merge(markers))
	req.AllowlistFiles = []string{regexp.QuoteMeta(header)}
	req.NoRecursiveAllowlist = true
	if err := g.run(req); err != nil {
		return "", fmt.Errorf("shim bindings: %w", err)
	}
	g.inputs = append(g.inputs, header)
	return req.Output, nil
}

// Inputs returns every header consumed so far.
func (g *Generator) Inputs() []string { return g.inputs }

// Warnings returns the non-fatal problems met so far.
func (g *Generator) Warnings() []string { return g.warnings }

func (g *Generator) baseRequest(header, stem string, defines *capability.DefineSet) Request {
	args := []string{"-x", "c++", "-fvisibility=default"}
	for _, inc := range g.IncludeRoots {
		args = append(args, "-I"+inc)
	}
	args = append(args, defines.Args()...)

	ext := g.Ext
	if ext == "" {
		ext = "rs"
	}
	req := Request{
		Header:    header,
		Output:    filepath.Join(g.OutDir, stem+"."+ext),
		ClangArgs: args,
	}
	if g.Profile.NeedsThiscall() {
		if g.Profile.IsNightly() {
			req.RustTarget = "nightly"
		} else {
			g.warnThiscall()
		}
	}
	return req
}

func (g *Generator) warnThiscall() {
	if g.warned {
		return
	}
	g.warned = true
	g.warnings = append(g.warnings, ThiscallWarning)
	if g.Logger != nil {
		g.Logger.Warn(ThiscallWarning, "target", g.Profile.Target)
	}
}

// primaryHeader returns the only header, or writes an umbrella header
// including all of them in order.
func (g *Generator) primaryHeader(stem string, headers []string) (string, error) {
	if len(headers) == 1 {
		return headers[0], nil
	}
	p := filepath.Join(g.OutDir, stem+"_wrapper.hpp")
	if g.DryRun {
		return p, nil
	}
	if err := os.MkdirAll(g.OutDir, 0o755); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("// Code generated by recastbind. DO NOT EDIT.\n")
	for _, h := range headers {
		fmt.Fprintf(&b, "#include %q\n", filepath.ToSlash(h))
	}
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func (g *Generator) run(req Request) error {
	if g.Logger != nil {
		g.Logger.Info("generating bindings", "header", filepath.Base(req.Header), "output", req.Output)
	}
	if !g.DryRun {
		if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
			return err
		}
	}
	return g.Tool.Generate(req)
}
