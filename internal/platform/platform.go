// Package platform captures the target environment of a pipeline run.
//
// A Profile is read once when the pipeline starts and passed explicitly to
// every stage; stages never consult the process environment themselves.
package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables provided by the invoking build.
const (
	EnvTarget        = "TARGET"
	EnvOptLevel      = "OPT_LEVEL"
	EnvToolchain     = "TOOLCHAIN"
	EnvRustToolchain = "RUSTUP_TOOLCHAIN"
	EnvProfile       = "PROFILE"
)

// ErrMissingEnv is returned when a required environment value is absent.
var ErrMissingEnv = errors.New("required environment value not set")

// Opt is the optimization tier.
type Opt int

const (
	Release Opt = iota
	Debug
)

func (o Opt) String() string {
	if o == Debug {
		return "debug"
	}
	return "release"
}

// Channel is the toolchain release channel.
type Channel int

const (
	Stable Channel = iota
	Nightly
)

func (c Channel) String() string {
	if c == Nightly {
		return "nightly"
	}
	return "stable"
}

// Profile describes the build target. It is immutable after Capture.
type Profile struct {
	Target    string // full target triple
	OS        string // windows, linux, darwin, android, ...
	Arch      string // first triple component
	Opt       Opt
	Channel   Channel
	Toolchain string
}

// LookupFunc reads one environment value.
type LookupFunc func(key string) (string, bool)

// CaptureEnv captures a profile from the process environment.
func CaptureEnv() (Profile, []string, error) {
	return Capture(os.LookupEnv)
}

// Capture builds a profile from lookup. Missing values are fatal; an
// unrecognized optimization level yields a warning and a release profile.
func Capture(lookup LookupFunc) (p Profile, warnings []string, err error) {
	target, err := require(lookup, EnvTarget)
	if err != nil {
		return Profile{}, nil, err
	}
	optLevel, err := require(lookup, EnvOptLevel)
	if err != nil {
		return Profile{}, nil, err
	}
	toolchain, ok := lookup(EnvToolchain)
	if !ok || toolchain == "" {
		toolchain, err = require(lookup, EnvRustToolchain)
		if err != nil {
			return Profile{}, nil, fmt.Errorf("%w: %s or %s", ErrMissingEnv, EnvToolchain, EnvRustToolchain)
		}
	}

	opt, known := ParseOpt(optLevel)
	if !known {
		warnings = append(warnings, fmt.Sprintf("Unknown opt-level=%s, defaulting to release", optLevel))
	}
	arch := strings.SplitN(target, "-", 2)[0]
	p = Profile{
		Target:    target,
		OS:        osFamily(target),
		Arch:      arch,
		Opt:       opt,
		Channel:   ParseChannel(toolchain),
		Toolchain: toolchain,
	}
	return p, warnings, nil
}

func require(lookup LookupFunc, key string) (string, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, key)
	}
	return v, nil
}

// ParseOpt maps an optimization level to a tier. known is false for values
// outside 0-3, s and z; such values map to Release.
func ParseOpt(level string) (opt Opt, known bool) {
	switch level {
	case "0":
		return Debug, true
	case "1", "2", "3", "s", "z":
		return Release, true
	}
	return Release, false
}

// ParseChannel reports Nightly for toolchain names starting with "nightly".
func ParseChannel(toolchain string) Channel {
	if strings.HasPrefix(toolchain, "nightly") {
		return Nightly
	}
	return Stable
}

var osFamilies = []struct{ substr, family string }{
	{"windows", "windows"},
	{"android", "android"},
	{"apple-ios", "ios"},
	{"apple", "darwin"},
	{"freebsd", "freebsd"},
	{"openbsd", "openbsd"},
	{"netbsd", "netbsd"},
	{"linux", "linux"},
	{"wasm", "wasm"},
}

func osFamily(target string) string {
	for _, f := range osFamilies {
		if strings.Contains(target, f.substr) {
			return f.family
		}
	}
	return "unknown"
}

func (p Profile) IsWindows() bool { return p.OS == "windows" }
func (p Profile) IsDebug() bool   { return p.Opt == Debug }
func (p Profile) IsNightly() bool { return p.Channel == Nightly }

// IsX86_32 reports a 32-bit x86 target.
func (p Profile) IsX86_32() bool {
	switch p.Arch {
	case "i386", "i586", "i686":
		return true
	}
	return false
}

// IsMSVC reports a target using the MSVC toolchain and ABI.
func (p Profile) IsMSVC() bool { return strings.Contains(p.Target, "msvc") }

// NeedsThiscall reports whether C++ member functions use the x86 thiscall
// convention, which the binding generator only supports on nightly.
func (p Profile) NeedsThiscall() bool { return p.IsWindows() && p.IsX86_32() }

// Key returns a deterministic name for the profile, e.g.
// "linux-x86_64-release-stable".
func (p Profile) Key() string {
	return p.OS + "-" + p.Arch + "-" + p.Opt.String() + "-" + p.Channel.String()
}
