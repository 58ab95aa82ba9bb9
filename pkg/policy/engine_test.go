package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clusterline/clusterline/pkg/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

// clusterConfig builds a resolved configuration for policy input.
func clusterConfig(t *testing.T, region string, clusterKeys map[string]string) *config.ResolvedConfig {
	t.Helper()
	cfg := &config.ResolvedConfig{Source: "test"}

	aws := config.NewSection(config.SectionAWS, "")
	if err := aws.Append(config.KeyRegionName, region); err != nil {
		t.Fatal(err)
	}
	global := config.NewSection(config.SectionGlobal, "")
	if err := global.Append(config.KeyClusterTemplate, "default"); err != nil {
		t.Fatal(err)
	}
	cluster := config.NewSection(config.SectionCluster, "default")
	for _, k := range []string{
		"base_os", "scheduler", "use_public_ips", "cluster_type",
		"spot_price", "max_queue_size", "initial_queue_size",
		"maintain_initial_size",
	} {
		if v, ok := clusterKeys[k]; ok {
			if err := cluster.Append(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	cfg.Sections = append(cfg.Sections, aws, global, cluster)
	return cfg
}

func TestNewEngine_BuiltinPolicies(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	if len(policies) == 0 {
		t.Fatal("No built-in policies loaded")
	}

	expectedPolicies := []string{
		"gov-partition-restrictions",
		"spot-pricing",
		"section-naming",
		"capacity-hygiene",
	}

	for _, expected := range expectedPolicies {
		if _, err := eng.GetPolicy(expected); err != nil {
			t.Errorf("Expected built-in policy not found: %s", expected)
		}
	}
}

func TestEvaluate_GovPartition(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name          string
		region        string
		keys          map[string]string
		expectAllowed bool
	}{
		{
			name:          "public ips in govcloud",
			region:        "us-gov-west-1",
			keys:          map[string]string{"base_os": "centos7", "use_public_ips": "true"},
			expectAllowed: false,
		},
		{
			name:          "unapproved os in govcloud",
			region:        "us-gov-west-1",
			keys:          map[string]string{"base_os": "ubuntu1804", "use_public_ips": "false"},
			expectAllowed: false,
		},
		{
			name:          "hardened govcloud cluster",
			region:        "us-gov-west-1",
			keys:          map[string]string{"base_os": "alinux2", "use_public_ips": "false"},
			expectAllowed: true,
		},
		{
			name:          "public ips are fine commercially",
			region:        "us-east-1",
			keys:          map[string]string{"base_os": "ubuntu1804", "use_public_ips": "true"},
			expectAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := clusterConfig(t, tt.region, tt.keys)
			result, err := eng.Evaluate(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("evaluation failed: %v", err)
			}
			if result.Allowed != tt.expectAllowed {
				t.Errorf("allowed = %v, want %v (violations: %v)",
					result.Allowed, tt.expectAllowed, result.Violations)
			}
		})
	}
}

func TestEvaluate_SpotPricing(t *testing.T) {
	eng := newTestEngine(t)

	cfg := clusterConfig(t, "us-east-1", map[string]string{
		"base_os":      "alinux2",
		"cluster_type": "ondemand",
		"spot_price":   "0.40",
	})
	result, err := eng.Evaluate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("warning-severity policies must not block: %v", result.Violations)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Policy == "spot-pricing" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a spot-pricing warning, got %v", result.Warnings)
	}
}

func TestEvaluate_CapacityHygiene(t *testing.T) {
	eng := newTestEngine(t)

	cfg := clusterConfig(t, "us-east-1", map[string]string{
		"base_os":        "alinux2",
		"max_queue_size": "500",
	})
	result, err := eng.Evaluate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("capacity review is a warning, not a block: %v", result.Violations)
	}

	found := false
	for _, w := range result.Warnings {
		if w.Policy == "capacity-hygiene" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a capacity-hygiene warning, got %v", result.Warnings)
	}
}

func TestEvaluate_SectionNaming(t *testing.T) {
	eng := newTestEngine(t)

	cfg := &config.ResolvedConfig{Source: "test"}
	aws := config.NewSection(config.SectionAWS, "")
	_ = aws.Append(config.KeyRegionName, "us-east-1")
	bad := config.NewSection(config.SectionCluster, "Prod_Cluster")
	_ = bad.Append("base_os", "alinux2")
	cfg.Sections = append(cfg.Sections, aws, bad)

	result, err := eng.Evaluate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if result.Allowed {
		t.Errorf("uppercase cluster name should violate section-naming: %+v", result)
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)

	if err := eng.DisablePolicy("gov-partition-restrictions"); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	cfg := clusterConfig(t, "us-gov-west-1", map[string]string{
		"base_os":        "ubuntu1804",
		"use_public_ips": "true",
	})
	result, err := eng.Evaluate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if !result.Allowed {
		t.Errorf("disabled policy still fired: %v", result.Violations)
	}

	if err := eng.EnablePolicy("gov-partition-restrictions"); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	result, err = eng.Evaluate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if result.Allowed {
		t.Error("re-enabled policy did not fire")
	}

	if err := eng.DisablePolicy("no-such-policy"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestReplacePolicies(t *testing.T) {
	eng := newTestEngine(t)
	builtins := len(eng.ListPolicies())

	first := Policy{
		Name:     "site-a",
		Severity: SeverityError,
		Enabled:  true,
		Rego:     "package site.a\n\nimport rego.v1\n\ndeny contains \"a\" if { false }",
	}
	if err := eng.ReplacePolicies([]Policy{first}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if _, err := eng.GetPolicy("site-a"); err != nil {
		t.Fatal("replaced-in policy not loaded")
	}

	// A second replace drops policies absent from the new set but keeps
	// the built-ins.
	second := Policy{
		Name:     "site-b",
		Severity: SeverityError,
		Enabled:  true,
		Rego:     "package site.b\n\nimport rego.v1\n\ndeny contains \"b\" if { false }",
	}
	if err := eng.ReplacePolicies([]Policy{second}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if _, err := eng.GetPolicy("site-a"); err == nil {
		t.Error("stale policy survived the replace")
	}
	if _, err := eng.GetPolicy("site-b"); err != nil {
		t.Error("new policy not loaded")
	}
	if got := len(eng.ListPolicies()); got != builtins+1 {
		t.Errorf("policy count = %d, want %d", got, builtins+1)
	}

	// A broken policy must not wipe the working set.
	if err := eng.ReplacePolicies([]Policy{{Name: "bad", Rego: "not rego at all {"}}); err == nil {
		t.Fatal("expected a compile error")
	}
	if _, err := eng.GetPolicy("site-b"); err != nil {
		t.Error("failed replace discarded the previous set")
	}
}

func TestEvaluate_ContextDerivation(t *testing.T) {
	eng := newTestEngine(t)

	cfg := clusterConfig(t, "cn-north-1", map[string]string{"base_os": "alinux2"})
	result, err := eng.Evaluate(context.Background(), cfg, &Context{Source: "test"})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if len(result.EvaluatedPolicies) == 0 {
		t.Error("no policies evaluated")
	}
	if !result.Allowed {
		t.Errorf("clean cn cluster should pass: %v", result.Violations)
	}
}
