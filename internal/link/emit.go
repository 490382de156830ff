package link

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Emit formats.
const (
	FormatCargo = "cargo"
	FormatCgo   = "cgo"
	FormatJSON  = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatCargo, FormatCgo, FormatJSON}

// Emit writes d to w in format. pkg names the Go package for FormatCgo.
func Emit(w io.Writer, d *Directives, format, pkg string) error {
	switch format {
	case FormatCargo, "":
		return emitCargo(w, d)
	case FormatCgo:
		return emitCgo(w, d, pkg)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return fmt.Errorf("unknown directive format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func emitCargo(w io.Writer, d *Directives) error {
	var b strings.Builder
	for _, p := range d.RerunIfChanged {
		fmt.Fprintf(&b, "cargo:rerun-if-changed=%s\n", p)
	}
	for _, e := range d.RerunIfEnvChanged {
		fmt.Fprintf(&b, "cargo:rerun-if-env-changed=%s\n", e)
	}
	for _, msg := range d.Warnings {
		fmt.Fprintf(&b, "cargo:warning=%s\n", msg)
	}
	if d.Runtime != "" {
		fmt.Fprintf(&b, "cargo:rustc-link-lib=%s\n", d.Runtime)
	}
	for _, p := range d.SearchPaths {
		fmt.Fprintf(&b, "cargo:rustc-link-search=native=%s\n", p)
	}
	for _, lib := range d.StaticLibs {
		fmt.Fprintf(&b, "cargo:rustc-link-lib=static=%s\n", lib)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func emitCgo(w io.Writer, d *Directives, pkg string) error {
	if pkg == "" {
		pkg = "recast"
	}
	var flags []string
	for _, p := range d.SearchPaths {
		flags = append(flags, "-L"+p)
	}
	for _, lib := range d.StaticLibs {
		flags = append(flags, "-l"+lib)
	}
	if d.Runtime != "" {
		flags = append(flags, "-l"+d.Runtime)
	}

	var b strings.Builder
	b.WriteString("// Code generated by recastbind. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	for _, msg := range d.Warnings {
		fmt.Fprintf(&b, "// warning: %s\n", msg)
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, "// #cgo LDFLAGS: %s\n", strings.Join(flags, " "))
	}
	b.WriteString("import \"C\"\n")
	_, err := io.WriteString(w, b.String())
	return err
}
