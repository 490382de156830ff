package capability

import "testing"

func TestDefineSetOrder(t *testing.T) {
	d := NewDefineSet()
	d.Flag("B").Value("A", "1").Flag("C")
	d.Value("B", "2")

	got := d.String()
	want := "-DB=2 -DA=1 -DC"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if d.Len() != 3 || !d.Has("A") || d.Has("Z") {
		t.Errorf("unexpected contents: %s", d)
	}
}

func TestDefineSetCloneIsolated(t *testing.T) {
	d := NewDefineSet().Flag(WideRefDefine)
	c := d.Clone()
	c.Flag("RECAST")
	if d.Has("RECAST") {
		t.Error("Clone shares storage with the original")
	}
	if !d.Equal(NewDefineSet().Flag(WideRefDefine)) {
		t.Error("original modified")
	}
}

func TestDefineSetMerge(t *testing.T) {
	base := NewDefineSet().Flag(WideRefDefine)
	merged := base.Merge(NewDefineSet().Flag("RECAST").Flag("DETOUR"))
	if got, want := merged.String(), "-DDT_POLYREF64 -DRECAST -DDETOUR"; got != want {
		t.Errorf("Merge = %q, want %q", got, want)
	}
	if base.Len() != 1 {
		t.Errorf("Merge modified receiver: %s", base)
	}
}

func TestDefineSetNil(t *testing.T) {
	var d *DefineSet
	if d.Len() != 0 || d.Has("X") || len(d.Args()) != 0 {
		t.Error("nil DefineSet must behave as empty")
	}
	if !d.Equal(NewDefineSet()) {
		t.Error("nil DefineSet must equal an empty one")
	}
}

func TestParseDefines(t *testing.T) {
	d, err := ParseDefines([]string{"RC_DISABLE_ASSERTS", "DT_VERTS_PER_POLYGON=8", " RC_DISABLE_ASSERTS=1 "})
	if err != nil {
		t.Fatalf("ParseDefines: %v", err)
	}
	if got, want := d.String(), "-DRC_DISABLE_ASSERTS=1 -DDT_VERTS_PER_POLYGON=8"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	for _, bad := range []string{"", "=1", "TWO WORDS"} {
		if _, err := ParseDefines([]string{bad}); err == nil {
			t.Errorf("ParseDefines(%q) succeeded", bad)
		}
	}
}
