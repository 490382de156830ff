// Package execx runs the external tools driven by the pipeline: the native
// build system, the C++ compiler and archiver, and the binding generator.
package execx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/execabs"
	"mvdan.cc/sh/v3/syntax"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// String renders the command as a copy-pasteable shell line.
func (c Command) String() string {
	words := make([]string, 0, 1+len(c.Args))
	words = append(words, quote(c.Name))
	for _, arg := range c.Args {
		words = append(words, quote(arg))
	}
	return strings.Join(words, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return q
}

// Runner executes commands. Every call blocks until the process exits.
type Runner interface {
	Run(cmd Command) error
	Output(cmd Command) ([]byte, error)
}

// Exec runs commands as real child processes.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

var _ Runner = (*Exec)(nil)

// NewExec returns a runner wired to the process stdio.
func NewExec(logger *log.Logger) *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr, Logger: logger}
}

func (e *Exec) Run(cmd Command) error {
	c := e.command(cmd)
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr
	if err := c.Run(); err != nil {
		return &Error{Cmd: cmd, Err: err}
	}
	return nil
}

func (e *Exec) Output(cmd Command) ([]byte, error) {
	c := e.command(cmd)
	var stderr bytes.Buffer
	c.Stderr = &stderr
	out, err := c.Output()
	if err != nil {
		return out, &Error{Cmd: cmd, Err: err, Stderr: stderr.String()}
	}
	return out, nil
}

func (e *Exec) command(cmd Command) *execabs.Cmd {
	if e.Logger != nil {
		e.Logger.Debug("exec", "cmd", cmd.String(), "dir", cmd.Dir)
	}
	c := execabs.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = MergeEnv(os.Environ(), cmd.Env)
	}
	return c
}

// Error reports a failed external command.
type Error struct {
	Cmd    Command
	Err    error
	Stderr string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Cmd.String(), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// DryRun logs commands instead of running them.
type DryRun struct {
	W io.Writer
}

var _ Runner = (*DryRun)(nil)

func (d *DryRun) Run(cmd Command) error {
	if cmd.Dir != "" {
		fmt.Fprintf(d.W, "(cd %s && %s)\n", quote(cmd.Dir), cmd.String())
		return nil
	}
	fmt.Fprintln(d.W, cmd.String())
	return nil
}

func (d *DryRun) Output(cmd Command) ([]byte, error) {
	return nil, d.Run(cmd)
}

// IsDryRun reports whether r only prints commands. Callers skip their own
// filesystem writes in that case.
func IsDryRun(r Runner) bool {
	_, ok := r.(*DryRun)
	return ok
}

// MergeEnv overlays override onto a KEY=VALUE environment list and returns
// the result sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
