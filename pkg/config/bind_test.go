package config

import (
	"errors"
	"testing"

	"github.com/clusterline/clusterline/pkg/template"
)

func TestBind(t *testing.T) {
	schema := []template.VarSpec{
		{Name: "region", Required: true},
		{Name: "key_name", Required: true},
		{Name: "base_os", Required: false, Default: "alinux2"},
		{Name: "custom_cookbook", Required: false},
	}

	t.Run("input wins over default", func(t *testing.T) {
		vars, err := Bind(map[string]string{
			"region":   "us-east-1",
			"key_name": "ops",
			"base_os":  "centos7",
		}, schema)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if vars["base_os"] != "centos7" {
			t.Errorf("base_os = %q, want input value centos7", vars["base_os"])
		}
	})

	t.Run("default applies when unset", func(t *testing.T) {
		vars, err := Bind(map[string]string{
			"region":   "us-east-1",
			"key_name": "ops",
		}, schema)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if vars["base_os"] != "alinux2" {
			t.Errorf("base_os = %q, want default alinux2", vars["base_os"])
		}
	})

	t.Run("optional without default is absent", func(t *testing.T) {
		vars, err := Bind(map[string]string{
			"region":   "us-east-1",
			"key_name": "ops",
		}, schema)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if _, ok := vars["custom_cookbook"]; ok {
			t.Error("unset optional variable should not be bound")
		}
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := Bind(map[string]string{"region": "us-east-1"}, schema)
		var berr *BindError
		if !errors.As(err, &berr) {
			t.Fatalf("expected *BindError, got %v", err)
		}
		if berr.Kind != BindMissingRequired {
			t.Errorf("kind = %s, want %s", berr.Kind, BindMissingRequired)
		}
		if berr.Name != "key_name" {
			t.Errorf("name = %q, want key_name", berr.Name)
		}
	})

	t.Run("extra inputs are ignored", func(t *testing.T) {
		vars, err := Bind(map[string]string{
			"region":        "us-east-1",
			"key_name":      "ops",
			"unrelated_var": "from the environment",
		}, schema)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if _, ok := vars["unrelated_var"]; ok {
			t.Error("input outside the schema should not be bound")
		}
	})

	t.Run("empty schema accepts any input", func(t *testing.T) {
		vars, err := Bind(map[string]string{"region": "us-east-1"}, nil)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if len(vars) != 0 {
			t.Errorf("expected no bindings, got %v", vars)
		}
	})
}

func TestEnvVars(t *testing.T) {
	environ := []string{
		"HOME=/root",
		"CLUSTERLINE_VAR_REGION=eu-west-1",
		"CLUSTERLINE_VAR_KEY_NAME=ops",
		"CLUSTERLINE=not-a-var",
	}
	vars := EnvVars(environ)
	if len(vars) != 2 {
		t.Fatalf("expected 2 vars, got %v", vars)
	}
	if vars["region"] != "eu-west-1" {
		t.Errorf("region = %q, want eu-west-1", vars["region"])
	}
	if vars["key_name"] != "ops" {
		t.Errorf("key_name = %q, want ops", vars["key_name"])
	}
}

func TestMergeRawVars_Precedence(t *testing.T) {
	file := &VarsFile{
		Defaults:  map[string]string{"base_os": "alinux", "scheduler": "sge"},
		Variables: map[string]string{"base_os": "alinux2", "region": "us-east-1"},
	}
	env := map[string]string{"region": "eu-west-1"}
	flags := map[string]string{"region": "cn-north-1", "key_name": "ops"}

	merged := MergeRawVars(file, env, flags)

	if merged["scheduler"] != "sge" {
		t.Errorf("defaults should survive when unoverridden, got %q", merged["scheduler"])
	}
	if merged["base_os"] != "alinux2" {
		t.Errorf("file variables should beat file defaults, got %q", merged["base_os"])
	}
	if merged["region"] != "cn-north-1" {
		t.Errorf("flags should beat environment, got %q", merged["region"])
	}
	if merged["key_name"] != "ops" {
		t.Errorf("flag-only variable missing, got %q", merged["key_name"])
	}
}

func TestMergeRawVars_EmptyDoesNotOverride(t *testing.T) {
	env := map[string]string{"region": "us-east-1"}
	flags := map[string]string{"region": ""}
	merged := MergeRawVars(nil, env, flags)
	if merged["region"] != "us-east-1" {
		t.Errorf("empty flag should not override, got %q", merged["region"])
	}
}
