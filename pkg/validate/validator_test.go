package validate

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clusterline/clusterline/pkg/config"
)

// buildConfig assembles a resolved configuration from header -> ordered
// key/value pairs.
func buildConfig(t *testing.T, sections []struct {
	kind, name string
	keys       [][2]string
}) *config.ResolvedConfig {
	t.Helper()
	cfg := &config.ResolvedConfig{Source: "test"}
	for _, s := range sections {
		sec := config.NewSection(s.kind, s.name)
		for _, kv := range s.keys {
			if err := sec.Append(kv[0], kv[1]); err != nil {
				t.Fatalf("append %s: %v", kv[0], err)
			}
		}
		cfg.Sections = append(cfg.Sections, sec)
	}
	return cfg
}

type sectionSpec = struct {
	kind, name string
	keys       [][2]string
}

// goodConfig is a fully valid single-cluster configuration.
func goodConfig(t *testing.T) *config.ResolvedConfig {
	return buildConfig(t, []sectionSpec{
		{"aws", "", [][2]string{{"aws_region_name", "us-east-1"}}},
		{"global", "", [][2]string{{"cluster_template", "default"}}},
		{"cluster", "default", [][2]string{
			{"key_name", "ops"},
			{"base_os", "alinux2"},
			{"scheduler", "slurm"},
			{"master_root_volume_size", "35"},
			{"compute_root_volume_size", "35"},
			{"initial_queue_size", "1"},
			{"max_queue_size", "10"},
			{"vpc_settings", "main"},
			{"pre_install", "s3://mybucket/scripts/pre_install.sh"},
			{"s3_read_resource", "arn:aws:s3:::mybucket/scripts/*"},
			{"extra_json", "{}"},
		}},
		{"vpc", "main", [][2]string{
			{"vpc_id", "vpc-0a1b2c3d"},
			{"master_subnet_id", "subnet-0a1b2c3d"},
		}},
	})
}

func newTestValidator() *Validator {
	return New(zerolog.Nop())
}

func TestValidate_CleanConfig(t *testing.T) {
	report := newTestValidator().Validate(context.Background(), goodConfig(t))
	if !report.Valid() {
		t.Fatalf("expected a valid report, got errors: %v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
}

func TestValidate_DanglingClusterTemplate(t *testing.T) {
	// cluster_template names a section that does not exist. The report
	// must contain exactly one reference error and nothing else.
	cfg := buildConfig(t, []sectionSpec{
		{"aws", "", [][2]string{{"aws_region_name", "us-east-1"}}},
		{"global", "", [][2]string{{"cluster_template", "default"}}},
		{"cluster", "other", [][2]string{{"scheduler", "slurm"}}},
	})
	report := newTestValidator().Validate(context.Background(), cfg)

	refs := report.ErrorsOfKind(KindReference)
	if len(refs) != 1 {
		t.Fatalf("expected exactly 1 reference error, got %d: %v", len(refs), report.Errors)
	}
	if refs[0].Field != config.KeyClusterTemplate {
		t.Errorf("field = %q, want cluster_template", refs[0].Field)
	}
	if len(report.Errors) != 1 {
		t.Errorf("expected no other errors, got %v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
}

func TestValidate_DanglingVPCSettings(t *testing.T) {
	cfg := goodConfig(t)
	cfg.Sections = cfg.Sections[:3] // drop the vpc section
	report := newTestValidator().Validate(context.Background(), cfg)

	refs := report.ErrorsOfKind(KindReference)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference error, got %v", report.Errors)
	}
	if refs[0].Field != config.KeyVPCSettings {
		t.Errorf("field = %q, want vpc_settings", refs[0].Field)
	}
}

func TestValidate_Enums(t *testing.T) {
	t.Run("bad scheduler", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "scheduler", "pbs")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindEnum); len(got) != 1 {
			t.Errorf("expected 1 enum error, got %v", report.Errors)
		}
	})

	t.Run("bad base_os", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "base_os", "windows2019")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindEnum); len(got) != 1 {
			t.Errorf("expected 1 enum error, got %v", report.Errors)
		}
	})

	t.Run("awsbatch os restriction is a warning", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "scheduler", "awsbatch")
		setKey(t, cfg, "cluster", "default", "base_os", "ubuntu1804")
		report := newTestValidator().Validate(context.Background(), cfg)
		if !report.Valid() {
			t.Errorf("awsbatch restriction must not be an error: %v", report.Errors)
		}
		if len(report.Warnings) != 1 {
			t.Fatalf("expected 1 warning, got %v", report.Warnings)
		}
		if report.Warnings[0].Kind != KindEnum {
			t.Errorf("warning kind = %s, want enum", report.Warnings[0].Kind)
		}
	})

	t.Run("awsbatch on alinux2 is clean", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "scheduler", "awsbatch")
		report := newTestValidator().Validate(context.Background(), cfg)
		if !report.Valid() || len(report.Warnings) != 0 {
			t.Errorf("unexpected findings: %v %v", report.Errors, report.Warnings)
		}
	})
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"volume below minimum", "master_root_volume_size", "10"},
		{"volume above maximum", "compute_root_volume_size", "20000"},
		{"volume not a number", "master_root_volume_size", "large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := goodConfig(t)
			setKey(t, cfg, "cluster", "default", tt.key, tt.value)
			report := newTestValidator().Validate(context.Background(), cfg)
			if got := report.ErrorsOfKind(KindRange); len(got) != 1 {
				t.Errorf("expected 1 range error, got %v", report.Errors)
			}
		})
	}

	t.Run("boundary values pass", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "master_root_volume_size", "20")
		setKey(t, cfg, "cluster", "default", "compute_root_volume_size", "16384")
		report := newTestValidator().Validate(context.Background(), cfg)
		if !report.Valid() {
			t.Errorf("boundary sizes should pass: %v", report.Errors)
		}
	})

	t.Run("initial queue above max", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "initial_queue_size", "11")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindRange); len(got) != 1 {
			t.Errorf("expected 1 range error, got %v", report.Errors)
		}
	})
}

func TestValidate_Formats(t *testing.T) {
	t.Run("bad vpc id", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "vpc", "main", "vpc_id", "vpc-XYZ")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindFormat); len(got) != 1 {
			t.Errorf("expected 1 format error, got %v", report.Errors)
		}
	})

	t.Run("17 hex digit ids pass", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "vpc", "main", "vpc_id", "vpc-0123456789abcdef0")
		setKey(t, cfg, "vpc", "main", "master_subnet_id", "subnet-0123456789abcdef0")
		report := newTestValidator().Validate(context.Background(), cfg)
		if !report.Valid() {
			t.Errorf("long-form IDs should pass: %v", report.Errors)
		}
	})

	t.Run("arn partition mismatch", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "aws", "", "aws_region_name", "cn-north-1")
		// s3_read_resource still carries arn:aws:, not arn:aws-cn:.
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindFormat); len(got) != 1 {
			t.Errorf("expected 1 format error, got %v", report.Errors)
		}
	})

	t.Run("malformed arn", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "s3_read_resource", "not-an-arn")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindFormat); len(got) != 1 {
			t.Errorf("expected 1 format error, got %v", report.Errors)
		}
	})

	t.Run("bad pre_install uri", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "pre_install", "not a uri")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindFormat); len(got) != 1 {
			t.Errorf("expected 1 format error, got %v", report.Errors)
		}
	})

	t.Run("invalid extra_json", func(t *testing.T) {
		cfg := goodConfig(t)
		setKey(t, cfg, "cluster", "default", "extra_json", "{broken")
		report := newTestValidator().Validate(context.Background(), cfg)
		if got := report.ErrorsOfKind(KindFormat); len(got) != 1 {
			t.Errorf("expected 1 format error, got %v", report.Errors)
		}
	})
}

func TestValidate_FeatureOverlapInfo(t *testing.T) {
	cfg := buildConfig(t, []sectionSpec{
		{"aws", "", [][2]string{{"aws_region_name", "us-east-1"}}},
		{"global", "", [][2]string{{"cluster_template", "default"}}},
		{"cluster", "default", [][2]string{
			{"vpc_settings", "main"},
			{"custom_chef_cookbook", "https://example.com/c.tgz"},
			{"extra_json", `{"cluster":{"custom_node_package":"https://example.com/n.tgz"}}`},
		}},
		{"vpc", "main", [][2]string{{"vpc_id", "vpc-0a1b2c3d"}}},
	})
	report := newTestValidator().Validate(context.Background(), cfg)
	if !report.Valid() {
		t.Fatalf("expected no errors, got %v", report.Errors)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Severity != SeverityInfo {
		t.Errorf("expected one info warning, got %v", report.Warnings)
	}
}

func TestValidate_AccumulatesAcrossChecks(t *testing.T) {
	// One enum, one range, and one format problem in a single pass.
	cfg := goodConfig(t)
	setKey(t, cfg, "cluster", "default", "scheduler", "pbs")
	setKey(t, cfg, "cluster", "default", "master_root_volume_size", "10")
	setKey(t, cfg, "vpc", "main", "vpc_id", "vpc-XYZ")

	report := newTestValidator().Validate(context.Background(), cfg)
	if len(report.Errors) != 3 {
		t.Fatalf("expected 3 accumulated errors, got %d: %v", len(report.Errors), report.Errors)
	}
	if len(report.ErrorsOfKind(KindEnum)) != 1 ||
		len(report.ErrorsOfKind(KindRange)) != 1 ||
		len(report.ErrorsOfKind(KindFormat)) != 1 {
		t.Errorf("expected one error of each kind, got %v", report.Errors)
	}
}

// setKey overwrites a key by rebuilding the section, preserving order.
func setKey(t *testing.T, cfg *config.ResolvedConfig, kind, name, key, value string) {
	t.Helper()
	sec := cfg.Section(kind, name)
	if sec == nil {
		t.Fatalf("no section [%s %s]", kind, name)
	}
	replaced := config.NewSection(kind, name)
	found := false
	for _, kv := range sec.Keys() {
		v := kv.Value
		if kv.Key == key {
			v = value
			found = true
		}
		if err := replaced.Append(kv.Key, v); err != nil {
			t.Fatalf("rebuild append: %v", err)
		}
	}
	if !found {
		if err := replaced.Append(key, value); err != nil {
			t.Fatalf("rebuild append: %v", err)
		}
	}
	for i, s := range cfg.Sections {
		if s == sec {
			cfg.Sections[i] = replaced
			return
		}
	}
}
