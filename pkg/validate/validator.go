package validate

import (
	"context"
	"encoding/json"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/clusterline/clusterline/pkg/config"
)

// Validator runs every structural check against a resolved configuration
// and accumulates the findings. It is safe for concurrent use.
type Validator struct {
	check  *validator.Validate
	logger zerolog.Logger
}

// New creates a validator with the provider ID formats registered.
func New(logger zerolog.Logger) *Validator {
	check := validator.New()
	// Registration only fails for an empty tag name.
	_ = check.RegisterValidation("awsvpcid", func(fl validator.FieldLevel) bool {
		return vpcIDPattern.MatchString(fl.Field().String())
	})
	_ = check.RegisterValidation("awssubnetid", func(fl validator.FieldLevel) bool {
		return subnetIDPattern.MatchString(fl.Field().String())
	})
	check.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("cfg")
	})
	return &Validator{
		check:  check,
		logger: logger.With().Str("component", "validator").Logger(),
	}
}

// clusterNumbers carries the cluster section's numeric settings through
// the struct validator. Zero values are skipped: absence is not a finding.
type clusterNumbers struct {
	MasterRootVolumeSize  int `cfg:"master_root_volume_size" validate:"omitempty,min=20,max=16384"`
	ComputeRootVolumeSize int `cfg:"compute_root_volume_size" validate:"omitempty,min=20,max=16384"`
}

// vpcIDs carries a vpc section's resource IDs through the struct
// validator.
type vpcIDs struct {
	VPCID           string `cfg:"vpc_id" validate:"omitempty,awsvpcid"`
	MasterSubnetID  string `cfg:"master_subnet_id" validate:"omitempty,awssubnetid"`
	ComputeSubnetID string `cfg:"compute_subnet_id" validate:"omitempty,awssubnetid"`
}

// Validate checks a resolved configuration and returns the full report.
// Every check runs; findings never short-circuit later checks. It never
// fails: an unvalidatable configuration is a report full of errors.
func (v *Validator) Validate(ctx context.Context, cfg *config.ResolvedConfig) *Report {
	report := &Report{Source: cfg.Source, GeneratedAt: time.Now()}

	cluster := v.checkActiveCluster(cfg, report)
	if cluster != nil {
		v.checkVPCReference(cfg, cluster, report)
		v.checkEnums(cluster, report)
		v.checkNumbers(ctx, cluster, report)
		v.checkScriptStorage(cluster, regionOf(cfg), report)
		v.checkFeatureOverlap(cluster, report)
	}
	for _, vpc := range cfg.SectionsOfKind(config.SectionVPC) {
		v.checkVPCIDs(ctx, vpc, report)
	}

	v.logger.Debug().
		Str("source", cfg.Source).
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("validation finished")
	return report
}

// checkActiveCluster resolves global.cluster_template and returns the
// active cluster section, or nil after recording the dangling reference.
func (v *Validator) checkActiveCluster(cfg *config.ResolvedConfig, report *Report) *config.Section {
	name := cfg.ActiveClusterName()
	if name == "" {
		report.addError(KindReference, config.SectionGlobal, config.KeyClusterTemplate,
			"cluster_template is not set; no active cluster")
		return nil
	}
	cluster := cfg.Section(config.SectionCluster, name)
	if cluster == nil {
		report.addError(KindReference, config.SectionGlobal, config.KeyClusterTemplate,
			"cluster_template %q names no [cluster %s] section", name, name)
		return nil
	}
	return cluster
}

// checkVPCReference resolves cluster.vpc_settings against the declared vpc
// sections.
func (v *Validator) checkVPCReference(cfg *config.ResolvedConfig, cluster *config.Section, report *Report) {
	name, ok := cluster.Get(config.KeyVPCSettings)
	if !ok || name == "" {
		report.addError(KindReference, cluster.Header(), config.KeyVPCSettings,
			"vpc_settings is not set; the cluster references no VPC section")
		return
	}
	if cfg.Section(config.SectionVPC, name) == nil {
		report.addError(KindReference, cluster.Header(), config.KeyVPCSettings,
			"vpc_settings %q names no [vpc %s] section", name, name)
	}
}

// checkEnums validates scheduler and base_os membership, plus the
// scheduler/OS support matrix.
func (v *Validator) checkEnums(cluster *config.Section, report *Report) {
	scheduler, hasScheduler := cluster.Get("scheduler")
	if hasScheduler && !oneOf(scheduler, Schedulers) {
		report.addError(KindEnum, cluster.Header(), "scheduler",
			"scheduler %q is not one of %s", scheduler, strings.Join(Schedulers, ", "))
	}
	baseOS, hasOS := cluster.Get("base_os")
	if hasOS && !oneOf(baseOS, BaseOSes) {
		report.addError(KindEnum, cluster.Header(), "base_os",
			"base_os %q is not one of %s", baseOS, strings.Join(BaseOSes, ", "))
	}
	if hasScheduler && hasOS && scheduler == "awsbatch" &&
		oneOf(baseOS, BaseOSes) && !awsBatchOSes[baseOS] {
		report.addWarning(SeverityWarning, KindEnum, cluster.Header(), "base_os",
			"the awsbatch scheduler supports the following operating systems: alinux, alinux2")
	}
}

// checkNumbers validates root volume sizes and queue-size ordering.
func (v *Validator) checkNumbers(ctx context.Context, cluster *config.Section, report *Report) {
	nums := clusterNumbers{
		MasterRootVolumeSize:  v.intKey(cluster, "master_root_volume_size", report),
		ComputeRootVolumeSize: v.intKey(cluster, "compute_root_volume_size", report),
	}
	if err := v.check.StructCtx(ctx, nums); err != nil {
		v.translate(err, cluster.Header(), report)
	}

	initial, okInitial := cluster.Get("initial_queue_size")
	max, okMax := cluster.Get("max_queue_size")
	if okInitial && okMax {
		i, errI := strconv.Atoi(initial)
		m, errM := strconv.Atoi(max)
		if errI == nil && errM == nil && i > m {
			report.addError(KindRange, cluster.Header(), "initial_queue_size",
				"initial_queue_size must be fewer than or equal to max_queue_size")
		}
	}
}

// intKey parses an integer key, recording a range error for non-numeric
// values and returning 0 so the struct validator skips the field.
func (v *Validator) intKey(sec *config.Section, key string, report *Report) int {
	raw, ok := sec.Get(key)
	if !ok || raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		report.addError(KindRange, sec.Header(), key,
			"%s %q must be a positive integer", key, raw)
		return 0
	}
	return n
}

// checkScriptStorage validates s3_read_resource and pre_install: lexical
// shape only, plus partition consistency with the bound region. The script
// itself is never fetched.
func (v *Validator) checkScriptStorage(cluster *config.Section, region string, report *Report) {
	expected := config.ClassifyRegion(region)

	if raw, ok := cluster.Get("s3_read_resource"); ok && raw != "" && raw != "NONE" {
		parsed, err := arn.Parse(raw)
		switch {
		case err != nil:
			report.addError(KindFormat, cluster.Header(), "s3_read_resource",
				"s3_read_resource %q is not a valid ARN", raw)
		case region != "" && parsed.Partition != string(expected):
			report.addError(KindFormat, cluster.Header(), "s3_read_resource",
				"s3_read_resource partition %q does not match region %s (expected %s)",
				parsed.Partition, region, expected)
		}
	}

	if raw, ok := cluster.Get("pre_install"); ok && raw != "" && raw != "NONE" {
		v.checkScriptURI(raw, region, expected, cluster.Header(), report)
	}

	if raw, ok := cluster.Get("extra_json"); ok && raw != "" {
		if !json.Valid([]byte(raw)) {
			report.addError(KindFormat, cluster.Header(), "extra_json",
				"extra_json is not valid JSON")
		}
	}
}

func (v *Validator) checkScriptURI(raw, region string, expected config.Partition, section string, report *Report) {
	if strings.HasPrefix(raw, "arn:") {
		parsed, err := arn.Parse(raw)
		if err != nil {
			report.addError(KindFormat, section, "pre_install",
				"pre_install %q is not a valid ARN", raw)
			return
		}
		if region != "" && parsed.Partition != string(expected) {
			report.addError(KindFormat, section, "pre_install",
				"pre_install partition %q does not match region %s (expected %s)",
				parsed.Partition, region, expected)
		}
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		report.addError(KindFormat, section, "pre_install",
			"pre_install %q is not a valid URI", raw)
	}
}

// checkFeatureOverlap surfaces the ambiguous both-features-set case. The
// features are treated as independent pending product clarification.
func (v *Validator) checkFeatureOverlap(cluster *config.Section, report *Report) {
	_, hasCookbook := cluster.Get("custom_chef_cookbook")
	extra, _ := cluster.Get("extra_json")
	if hasCookbook && strings.Contains(extra, "custom_node_package") {
		report.addWarning(SeverityInfo, KindEnum, cluster.Header(), "custom_chef_cookbook",
			"custom_chef_cookbook and extra_json.custom_node_package are both set; they are applied independently")
	}
}

// checkVPCIDs validates the resource-ID lexical patterns of one vpc
// section.
func (v *Validator) checkVPCIDs(ctx context.Context, vpc *config.Section, report *Report) {
	ids := vpcIDs{}
	ids.VPCID, _ = vpc.Get("vpc_id")
	ids.MasterSubnetID, _ = vpc.Get("master_subnet_id")
	ids.ComputeSubnetID, _ = vpc.Get("compute_subnet_id")
	if err := v.check.StructCtx(ctx, ids); err != nil {
		v.translate(err, vpc.Header(), report)
	}
}

// translate converts struct-validator findings into report errors, mapping
// tags onto the report taxonomy.
func (v *Validator) translate(err error, section string, report *Report) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		report.addError(KindFormat, section, "", "validation failed: %v", err)
		return
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "min":
			report.addError(KindRange, section, field,
				"%s must be at least %s GiB", field, fe.Param())
		case "max":
			report.addError(KindRange, section, field,
				"%s must be at most %s GiB", field, fe.Param())
		case "awsvpcid":
			report.addError(KindFormat, section, field,
				"%s %q does not match the vpc-xxxxxxxx resource ID format", field, fe.Value())
		case "awssubnetid":
			report.addError(KindFormat, section, field,
				"%s %q does not match the subnet-xxxxxxxx resource ID format", field, fe.Value())
		default:
			report.addError(KindFormat, section, field,
				"%s failed %s validation", field, fe.Tag())
		}
	}
}

// regionOf returns aws.aws_region_name, or "" when unset.
func regionOf(cfg *config.ResolvedConfig) string {
	aws := cfg.Section(config.SectionAWS, "")
	if aws == nil {
		return ""
	}
	region, _ := aws.Get(config.KeyRegionName)
	return region
}
