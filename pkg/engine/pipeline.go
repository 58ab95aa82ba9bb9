package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clusterline/clusterline/pkg/config"
	"github.com/clusterline/clusterline/pkg/telemetry"
	"github.com/clusterline/clusterline/pkg/template"
	"github.com/clusterline/clusterline/pkg/validate"
)

// Input is one immutable pipeline input: a template plus its raw variable
// bindings. Exactly one of TemplatePath, Source, or Builtin selects the
// template.
type Input struct {
	// TemplatePath is a template file to load.
	TemplatePath string

	// Source is inline template text, used when TemplatePath is empty.
	Source []byte

	// SourceName names inline source in errors and reports.
	SourceName string

	// Builtin selects the embedded reference template.
	Builtin bool

	// RawVars are the merged variable inputs (file, environment, flags).
	RawVars map[string]string
}

func (in Input) sourceName() string {
	switch {
	case in.Builtin:
		return config.BuiltinTemplateSource
	case in.TemplatePath != "":
		return in.TemplatePath
	case in.SourceName != "":
		return in.SourceName
	default:
		return "inline"
	}
}

// Result is the outcome of one pipeline run. Err is set for bind and
// assemble failures; validation findings live in Report and are not
// errors.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Source names the input template.
	Source string `json:"source"`

	// Config is the resolved configuration, nil when Err is set.
	Config *config.ResolvedConfig `json:"-"`

	// Report is the validation report, nil when Err is set.
	Report *validate.Report `json:"report,omitempty"`

	// Rendered is the emitted configuration text.
	Rendered []byte `json:"-"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// Err is the bind/assemble failure, if any.
	Err error `json:"-"`
}

// Pipeline wires the four stages together with telemetry.
type Pipeline struct {
	binder    Binder
	resolver  Resolver
	assembler Assembler
	validator Validator
	tel       *telemetry.Telemetry
	logger    zerolog.Logger
}

// Options configures a pipeline. Zero-value fields fall back to the
// standard stage implementations and no-op telemetry.
type Options struct {
	Binder    Binder
	Resolver  Resolver
	Assembler Assembler
	Validator Validator
	Telemetry *telemetry.Telemetry
}

// NewPipeline builds a pipeline from options.
func NewPipeline(opts Options) *Pipeline {
	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.Nop()
	}
	p := &Pipeline{
		binder:    opts.Binder,
		resolver:  opts.Resolver,
		assembler: opts.Assembler,
		validator: opts.Validator,
		tel:       tel,
		logger:    tel.Logger.With().Str("component", "pipeline").Logger(),
	}
	if p.binder == nil {
		p.binder = stdBinder{}
	}
	if p.resolver == nil {
		p.resolver = stdResolver{}
	}
	if p.assembler == nil {
		p.assembler = stdAssembler{}
	}
	if p.validator == nil {
		p.validator = validate.New(tel.Logger)
	}
	return p
}

// partitionUnknown labels runs that fail before a region is resolved, so
// early failures do not count against a real partition.
const partitionUnknown = "unknown"

// Run executes the full pipeline over one input. The returned Result is
// never nil; its Err field mirrors the returned error.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String(), Source: in.sourceName()}
	logger := p.logger.With().Str("run_id", result.RunID).Str("source", result.Source).Logger()

	fail := func(phase Phase, message string, err error) (*Result, error) {
		result.Err = newPhaseError(phase, message, err)
		result.Duration = time.Since(start)
		p.tel.Metrics.RecordRunCompleted("failed", result.Duration)
		_ = p.tel.Events.PublishRunFailed(result.RunID, result.Err.Error())
		logger.Error().Err(err).Str("phase", string(phase)).Msg("pipeline run failed")
		return result, result.Err
	}

	tpl, err := p.loadTemplate(in)
	if err != nil {
		p.tel.Metrics.RecordRunStarted(partitionUnknown)
		return fail(PhaseAssemble, "template is malformed", err)
	}

	// Bind.
	bindCtx, bindSpan := p.tel.Tracer.StartPhaseSpan(ctx, result.RunID, "bind")
	schema := config.SchemaForTemplate(tpl)
	vars, err := p.binder.Bind(in.RawVars, schema)
	if err != nil {
		telemetry.RecordError(bindSpan, err)
		bindSpan.End()
		p.tel.Metrics.RecordRunStarted(partitionUnknown)
		return fail(PhaseBind, "variable binding failed", err)
	}
	bindSpan.End()

	region := vars[config.VarRegion]
	partition := config.ClassifyRegion(region)
	p.tel.Metrics.RecordRunStarted(string(partition))
	_ = p.tel.Events.PublishRunStarted(result.RunID, result.Source)

	// Resolve builtin placeholders.
	_, resolveSpan := p.tel.Tracer.StartPhaseSpan(bindCtx, result.RunID, "resolve")
	builtins := p.resolver.Resolve(region, config.FlagsFromVars(vars))
	resolveSpan.End()

	// Assemble.
	asmCtx, asmSpan := p.tel.Tracer.StartPhaseSpan(bindCtx, result.RunID, "assemble")
	cfg, err := p.assembler.Assemble(tpl, vars, builtins)
	if err != nil {
		telemetry.RecordError(asmSpan, err)
		asmSpan.End()
		return fail(PhaseAssemble, "section assembly failed", err)
	}
	asmSpan.End()

	// Validate. Findings are data; this phase cannot fail the run.
	valCtx, valSpan := p.tel.Tracer.StartPhaseSpan(asmCtx, result.RunID, "validate")
	result.Report = p.validator.Validate(valCtx, cfg)
	valSpan.End()
	for _, f := range result.Report.Errors {
		p.tel.Metrics.RecordFinding(string(f.Kind), string(f.Severity))
	}
	for _, f := range result.Report.Warnings {
		p.tel.Metrics.RecordFinding(string(f.Kind), string(f.Severity))
	}

	rendered, err := config.Emit(cfg)
	if err != nil {
		return fail(PhaseEmit, "failed to render configuration", err)
	}

	result.Config = cfg
	result.Rendered = rendered
	result.Duration = time.Since(start)

	status := "valid"
	if !result.Report.Valid() {
		status = "invalid"
	}
	p.tel.Metrics.RecordRunCompleted(status, result.Duration)
	_ = p.tel.Events.PublishRunCompleted(result.RunID,
		len(result.Report.Errors), len(result.Report.Warnings), result.Duration)
	logger.Info().
		Str("status", status).
		Int("errors", len(result.Report.Errors)).
		Int("warnings", len(result.Report.Warnings)).
		Dur("duration", result.Duration).
		Msg("pipeline run finished")
	return result, nil
}

func (p *Pipeline) loadTemplate(in Input) (*template.Template, error) {
	switch {
	case in.Builtin:
		return config.BuiltinTemplate()
	case in.TemplatePath != "":
		return template.ParseFile(in.TemplatePath)
	default:
		return template.Parse(in.sourceName(), in.Source)
	}
}
