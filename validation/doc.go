// Package validation checks configuration structs against
// go-playground/validator struct tags.
//
//	type PipelineConfig struct {
//	    Parallelism int `mapstructure:"parallelism" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are returned as errors.PipeError with code INVALID_CONFIG and a
// "fields" detail naming each offending key.
package validation
