package bindgen

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/recastbind/internal/execx"
)

// Bindgen runs the bindgen command line tool.
type Bindgen struct {
	Runner execx.Runner
	Bin    string // defaults to "bindgen"
}

var _ Tool = (*Bindgen)(nil)

func (b *Bindgen) bin() string {
	if b.Bin != "" {
		return b.Bin
	}
	return "bindgen"
}

// Args renders req as bindgen arguments. Clang arguments follow "--".
func (b *Bindgen) Args(req Request) []string {
	args := []string{req.Header, "--output", req.Output}
	for _, f := range req.BlocklistFiles {
		args = append(args, "--blocklist-file", f)
	}
	for _, t := range req.BlocklistTypes {
		args = append(args, "--blocklist-type", t)
	}
	for _, f := range req.AllowlistFiles {
		args = append(args, "--allowlist-file", f)
	}
	if req.NoRecursiveAllowlist {
		args = append(args, "--no-recursive-allowlist")
	}
	if req.RustTarget != "" {
		args = append(args, "--rust-target", req.RustTarget)
	}
	args = append(args, "--")
	return append(args, req.ClangArgs...)
}

func (b *Bindgen) Generate(req Request) error {
	return b.Runner.Run(execx.Command{Name: b.bin(), Args: b.Args(req)})
}

// Version asks the tool for its version and returns it in semver form,
// e.g. "v0.69.4".
func (b *Bindgen) Version() (string, error) {
	out, err := b.Runner.Output(execx.Command{Name: b.bin(), Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	return parseVersion(string(out))
}

func parseVersion(out string) (string, error) {
	for _, field := range strings.Fields(out) {
		v := "v" + strings.TrimPrefix(field, "v")
		if semver.IsValid(v) {
			return semver.Canonical(v), nil
		}
	}
	return "", fmt.Errorf("no version in %q", strings.TrimSpace(out))
}

// CheckVersion returns a warning when the tool is older than min or its
// version cannot be determined. An empty min disables the check.
func (b *Bindgen) CheckVersion(min string) string {
	if min == "" {
		return ""
	}
	want := "v" + strings.TrimPrefix(min, "v")
	if !semver.IsValid(want) {
		return fmt.Sprintf("ignoring invalid minimum %s version %q", b.bin(), min)
	}
	got, err := b.Version()
	if err != nil {
		return fmt.Sprintf("cannot determine %s version: %v", b.bin(), err)
	}
	if semver.Compare(got, want) < 0 {
		return fmt.Sprintf("%s %s is older than %s; blocklist and allowlist options may be ignored", b.bin(), got, want)
	}
	return ""
}
