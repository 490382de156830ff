package execx

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCommandString(t *testing.T) {
	cmd := Command{Name: "cmake", Args: []string{"-S", "/src dir", "-DFOO:STRING=a b"}}
	got := cmd.String()
	want := `cmake -S '/src dir' '-DFOO:STRING=a b'`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv([]string{"B=1", "A=2", "broken"}, map[string]string{"B": "3", "C": "4"})
	want := []string{"A=2", "B=3", "C=4"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("MergeEnv = %v, want %v", got, want)
	}
}

func TestDryRun(t *testing.T) {
	var buf bytes.Buffer
	d := &DryRun{W: &buf}
	if err := d.Run(Command{Name: "ar", Args: []string{"crs", "libx.a"}}); err != nil {
		t.Fatal(err)
	}
	if err := d.Run(Command{Name: "make", Dir: "/tmp/b"}); err != nil {
		t.Fatal(err)
	}
	want := "ar crs libx.a\n(cd /tmp/b && make)\n"
	if buf.String() != want {
		t.Errorf("dry run output = %q, want %q", buf.String(), want)
	}
	if !IsDryRun(d) || IsDryRun(&Recorder{}) || IsDryRun(NewExec(nil)) {
		t.Error("IsDryRun must hold for DryRun only")
	}
}

func TestRecorder(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{
		Outputs: map[string][]byte{"bindgen": []byte("bindgen 0.69.4\n")},
		Hook: func(cmd Command) error {
			if cmd.Name == "fail" {
				return boom
			}
			return nil
		},
	}
	out, err := r.Output(Command{Name: "bindgen", Args: []string{"--version"}})
	if err != nil || string(out) != "bindgen 0.69.4\n" {
		t.Fatalf("Output = %q, %v", out, err)
	}
	if err := r.Run(Command{Name: "fail"}); !errors.Is(err, boom) {
		t.Fatalf("Run(fail) = %v, want %v", err, boom)
	}
	if n := len(r.Commands()); n != 2 {
		t.Errorf("recorded %d commands, want 2", n)
	}
	if n := len(r.Named("bindgen")); n != 1 {
		t.Errorf("Named(bindgen) = %d, want 1", n)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Cmd: Command{Name: "cmake", Args: []string{"--build", "b"}}, Err: errors.New("exit status 2"), Stderr: "  oops\n"}
	want := "cmake --build b: exit status 2\noops"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
