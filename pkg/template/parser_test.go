package template

import (
	"errors"
	"testing"
)

const sampleTemplate = `# sample
[aws]
aws_region_name = ${region}

[global]
cluster_template = default

[cluster default]
key_name = ${key_name}
scheduler = slurm
%if region ~ cn-*
base_os = alinux2
%elif region ~ us-gov-*
base_os = centos7
%else
base_os = ${base_os}
%endif
%if custom_cookbook
custom_chef_cookbook = ${custom_cookbook}
%endif
`

func TestParse_Sections(t *testing.T) {
	tpl, err := Parse("sample", []byte(sampleTemplate))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(tpl.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(tpl.Sections))
	}

	cluster := tpl.Section("cluster", "default")
	if cluster == nil {
		t.Fatal("expected [cluster default] section")
	}
	if cluster.Header() != "cluster default" {
		t.Errorf("header = %q, want %q", cluster.Header(), "cluster default")
	}

	// key_name, scheduler, two conditionals
	if len(cluster.Entries) != 4 {
		t.Fatalf("expected 4 entries in cluster section, got %d", len(cluster.Entries))
	}
	if cluster.Entries[1].Key == nil || cluster.Entries[1].Key.Name != "scheduler" {
		t.Errorf("entry 1 should be the scheduler key line")
	}
}

func TestParse_Conditionals(t *testing.T) {
	tpl, err := Parse("sample", []byte(sampleTemplate))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cluster := tpl.Section("cluster", "default")
	regionCond := cluster.Entries[2].Cond
	if regionCond == nil {
		t.Fatal("entry 2 should be the region conditional")
	}
	if len(regionCond.Branches) != 3 {
		t.Fatalf("expected 3 branches, got %d", len(regionCond.Branches))
	}
	if !regionCond.HasElse() {
		t.Error("region conditional should have an else arm")
	}
	if got := regionCond.Branches[0].Guard.RegionPrefix; got != "cn-" {
		t.Errorf("first guard prefix = %q, want %q", got, "cn-")
	}
	if got := regionCond.Branches[1].Guard.RegionPrefix; got != "us-gov-" {
		t.Errorf("second guard prefix = %q, want %q", got, "us-gov-")
	}
	if regionCond.Branches[2].Guard != nil {
		t.Error("third branch should be the unguarded else arm")
	}

	presenceCond := cluster.Entries[3].Cond
	if presenceCond == nil {
		t.Fatal("entry 3 should be the presence conditional")
	}
	if presenceCond.HasElse() {
		t.Error("presence conditional has no else arm")
	}
	if got := presenceCond.Branches[0].Guard.Var; got != "custom_cookbook" {
		t.Errorf("presence guard var = %q, want %q", got, "custom_cookbook")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   ParseErrorKind
	}{
		{
			name:   "malformed line",
			source: "[aws]\nnot a key value\n",
			kind:   ErrKindMalformedLine,
		},
		{
			name:   "key before section",
			source: "key = value\n",
			kind:   ErrKindKeyOutsideSection,
		},
		{
			name:   "duplicate section",
			source: "[aws]\n[aws]\n",
			kind:   ErrKindDuplicateSection,
		},
		{
			name:   "unterminated conditional",
			source: "[cluster a]\n%if custom_cookbook\nkey = v\n",
			kind:   ErrKindUnterminatedConditional,
		},
		{
			name:   "header inside conditional",
			source: "[cluster a]\n%if custom_cookbook\n[vpc b]\n",
			kind:   ErrKindUnterminatedConditional,
		},
		{
			name:   "endif without if",
			source: "[cluster a]\n%endif\n",
			kind:   ErrKindUnexpectedDirective,
		},
		{
			name:   "nested if",
			source: "[cluster a]\n%if x\n%if y\n%endif\n%endif\n",
			kind:   ErrKindUnexpectedDirective,
		},
		{
			name:   "elif after else",
			source: "[cluster a]\n%if x\n%else\n%elif y\n%endif\n",
			kind:   ErrKindUnexpectedDirective,
		},
		{
			name:   "unknown directive",
			source: "[cluster a]\n%unless x\n",
			kind:   ErrKindUnexpectedDirective,
		},
		{
			name:   "region predicate without glob",
			source: "[cluster a]\n%if region ~ cn-north-1\n%endif\n",
			kind:   ErrKindBadPredicate,
		},
		{
			name:   "empty predicate",
			source: "[cluster a]\n%if\n%endif\n",
			kind:   ErrKindBadPredicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test", []byte(tt.source))
			if err == nil {
				t.Fatal("expected a parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", perr.Kind, tt.kind)
			}
			if perr.Pos.Line == 0 {
				t.Error("parse error should carry a line number")
			}
		})
	}
}

func TestParse_StopsAtFirstError(t *testing.T) {
	// Both lines are bad; only the first is reported.
	_, err := Parse("test", []byte("bad line one\nbad line two\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Pos.Line != 1 {
		t.Errorf("error line = %d, want 1", perr.Pos.Line)
	}
}

func TestPlaceholders(t *testing.T) {
	tpl, err := Parse("sample", []byte(sampleTemplate))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"region", "key_name", "base_os", "custom_cookbook"}
	got := tpl.Placeholders()
	if len(got) != len(want) {
		t.Fatalf("placeholders = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("placeholders[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSchema(t *testing.T) {
	tpl, err := Parse("sample", []byte(sampleTemplate))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	specs := tpl.Schema()
	byName := make(map[string]VarSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	tests := []struct {
		name     string
		required bool
	}{
		// Unconditional markers are required.
		{"region", true},
		{"key_name", true},
		// base_os only appears on a region-guarded line, still required.
		{"base_os", true},
		// Presence-guarded markers and the guard variable are optional.
		{"custom_cookbook", false},
	}
	for _, tt := range tests {
		spec, ok := byName[tt.name]
		if !ok {
			t.Errorf("schema is missing %q", tt.name)
			continue
		}
		if spec.Required != tt.required {
			t.Errorf("%s required = %v, want %v", tt.name, spec.Required, tt.required)
		}
	}
}

func TestSchema_ExcludesBuiltins(t *testing.T) {
	src := "[cluster a]\ns3_read_resource = arn:${partition}:s3:::b\nextra_json = ${extra_json}\n"
	tpl, err := Parse("test", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	specs := tpl.Schema("partition", "extra_json")
	if len(specs) != 0 {
		t.Errorf("builtins should be excluded from the schema, got %v", specs)
	}
}

func TestHasMarkers(t *testing.T) {
	withMarkers, err := Parse("a", []byte("[aws]\naws_region_name = ${region}\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !withMarkers.HasMarkers() {
		t.Error("template with ${region} should report markers")
	}

	resolved, err := Parse("b", []byte("[aws]\naws_region_name = us-east-1\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if resolved.HasMarkers() {
		t.Error("marker-free template should report no markers")
	}
}
