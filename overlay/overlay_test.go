package overlay_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	ms "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/overlay"
)

func personSchema(t *testing.T) *ms.Schema {
	t.Helper()
	s, err := ms.NewSchema([]*ms.GroupDef{
		ms.NewGroup("Person",
			ms.NewField("name", ms.String()).WithRequired(true).
				WithAnnotations(ms.NewAnnotations(map[string]string{"doc": "full name", "since": "1"})),
			ms.NewField("age", ms.UInt8),
		).WithAnnotations(ms.NewAnnotations(map[string]string{"doc": "a person"})),
	}, []*ms.NamedType{
		ms.NewNamedType("Color", ms.Enum(ms.Symbol{Name: "Red", ID: 0})),
	}, ms.WithSchemaAnnotations(ms.NewAnnotations(map[string]string{"owner": "core"})))
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func annotation(t *testing.T, a ms.Annotations, key string) string {
	t.Helper()
	v, _ := a.Get(key)
	return v
}

func TestApply_Merge(t *testing.T) {
	s := personSchema(t)
	o := overlay.New()
	o.Set("", "version", "2")
	o.Set("Person", "table", "people")
	o.Set(overlay.FieldPath("Person", "name"), "doc", "legal name")
	o.Set("Color", "doc", "paint")

	out, err := o.Apply(s, overlay.Merge)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if annotation(t, out.Annotations(), "owner") != "core" || annotation(t, out.Annotations(), "version") != "2" {
		t.Fatalf("schema annotations: %v", out.Annotations().Map())
	}
	g, _ := out.Group("Person")
	if annotation(t, g.Annotations(), "doc") != "a person" || annotation(t, g.Annotations(), "table") != "people" {
		t.Fatalf("group annotations: %v", g.Annotations().Map())
	}
	f, _ := g.Field("name")
	if annotation(t, f.Annotations(), "doc") != "legal name" || annotation(t, f.Annotations(), "since") != "1" {
		t.Fatalf("field annotations: %v", f.Annotations().Map())
	}
	if !f.Required() || !ms.TypesEqual(f.Type(), ms.String()) {
		t.Fatalf("overlay changed the field shape")
	}
	nt, _ := out.NamedType("Color")
	if annotation(t, nt.Annotations(), "doc") != "paint" {
		t.Fatalf("named type annotations: %v", nt.Annotations().Map())
	}
	// the input schema is untouched
	if _, ok := s.Annotations().Get("version"); ok {
		t.Fatalf("Apply mutated its input")
	}
}

func TestApply_Replace(t *testing.T) {
	s := personSchema(t)
	o := overlay.New()
	o.Set(overlay.FieldPath("Person", "name"), "pii", "true")

	out, err := o.Apply(s, overlay.Replace)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	g, _ := out.Group("Person")
	f, _ := g.Field("name")
	if got := f.Annotations().Keys(); len(got) != 1 || got[0] != "pii" {
		t.Fatalf("field annotations not replaced: %v", got)
	}
	// paths without entries keep their annotations
	if annotation(t, g.Annotations(), "doc") != "a person" {
		t.Fatalf("untouched group lost annotations")
	}
	if annotation(t, out.Annotations(), "owner") != "core" {
		t.Fatalf("untouched schema lost annotations")
	}
}

func TestApply_KeepsBindings(t *testing.T) {
	s, err := ms.BindRuntimeGroups(personSchema(t))
	if err != nil {
		t.Fatalf("BindRuntimeGroups: %v", err)
	}
	o := overlay.New()
	o.Set(overlay.FieldPath("Person", "age"), "unit", "years")
	out, err := o.Apply(s, overlay.Merge)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.IsBound() {
		t.Fatalf("binding lost")
	}
	before, _ := s.Group("Person")
	after, _ := out.Group("Person")
	fb, _ := before.Field("age")
	fa, _ := after.Field("age")
	if fa.Binding() != fb.Binding() || after.Binding() != before.Binding() {
		t.Fatalf("bindings replaced")
	}
}

func TestApply_UnknownPath(t *testing.T) {
	for _, p := range []string{"Nobody", "Person.height", "Color.x"} {
		o := overlay.New()
		o.Set(p, "k", "v")
		if _, err := o.Apply(personSchema(t), overlay.Merge); !errors.Is(err, overlay.ErrUnknownPath) {
			t.Fatalf("%s: expected ErrUnknownPath, got %v", p, err)
		}
	}
}

func TestOverlay_MergeAndExtract(t *testing.T) {
	a := overlay.New()
	a.Set("Person", "doc", "old")
	b := overlay.New()
	b.Set("Person", "doc", "new")
	b.Set("", "owner", "team")
	a.Merge(b)
	if v, _ := a.Get("Person", "doc"); v != "new" || a.Len() != 2 {
		t.Fatalf("merge: %q len=%d", v, a.Len())
	}

	ex := overlay.Extract(personSchema(t))
	want := map[[2]string]string{
		{"", "owner"}:          "core",
		{"Person", "doc"}:      "a person",
		{"Person.name", "doc"}: "full name",
	}
	for k, v := range want {
		if got, _ := ex.Get(k[0], k[1]); got != v {
			t.Fatalf("extract %v = %q, want %q", k, got, v)
		}
	}
}

func TestParseYAML(t *testing.T) {
	o, err := overlay.ParseYAML([]byte(`
schema:
  owner: payments
paths:
  Person:
    doc: A natural person
  Person.name:
    pii: "true"
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if v, _ := o.Get("", "owner"); v != "payments" {
		t.Fatalf("schema entry: %q", v)
	}
	if v, _ := o.Get("Person.name", "pii"); v != "true" {
		t.Fatalf("field entry: %q", v)
	}
	if _, err := overlay.ParseYAML([]byte("groups: {}\n")); err == nil {
		t.Fatalf("unknown key accepted")
	}
	if o, err := overlay.ParseYAML(nil); err != nil || o.Len() != 0 {
		t.Fatalf("empty document: %v", err)
	}
}

func TestParseTOML(t *testing.T) {
	o, err := overlay.ParseTOML([]byte(`
[schema]
owner = "payments"

[paths.Person]
doc = "A natural person"

[paths."Person.name"]
pii = "true"
`))
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if v, _ := o.Get("Person", "doc"); v != "A natural person" {
		t.Fatalf("group entry: %q", v)
	}
	if v, _ := o.Get("Person.name", "pii"); v != "true" {
		t.Fatalf("field entry: %q", v)
	}
	if _, err := overlay.ParseTOML([]byte("mode = \"merge\"\n")); err == nil {
		t.Fatalf("unknown key accepted")
	}
}

func TestLoad_ByExtensionAndRoundTrip(t *testing.T) {
	src := overlay.New()
	src.Set("", "owner", "core")
	src.Set("Person.name", "doc", "legal name")
	dir := t.TempDir()

	var tb bytes.Buffer
	if err := src.WriteTOML(&tb); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}
	yb, err := yaml.Marshal(src)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	files := map[string][]byte{
		"a.toml": tb.Bytes(),
		"a.yaml": yb,
		"a.yml":  yb,
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := overlay.Load(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if v, _ := got.Get("Person.name", "doc"); v != "legal name" || got.Len() != 2 {
			t.Fatalf("%s: round trip lost entries", name)
		}
	}
	if _, err := overlay.Load(filepath.Join(dir, "a.json")); err == nil {
		t.Fatalf("unsupported extension accepted")
	}
}
