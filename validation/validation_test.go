package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/flowkit/errors"
)

type retrySection struct {
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=0"`
}

type sampleConfig struct {
	Name        string       `mapstructure:"name" validate:"required"`
	Parallelism int          `mapstructure:"parallelism" validate:"gte=1,lte=64"`
	Format      string       `yaml:"format" validate:"oneof=json console"`
	Retry       retrySection `mapstructure:"retry"`
	Internal    string       `mapstructure:"-"`
	PageSize    int          `validate:"gt=0"`
}

func valid() sampleConfig {
	return sampleConfig{Name: "rows", Parallelism: 4, Format: "json", PageSize: 10}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sampleConfig)
		field  string
		msg    string
	}{
		{"required", func(c *sampleConfig) { c.Name = "" }, "name", "is required"},
		{"gte", func(c *sampleConfig) { c.Parallelism = 0 }, "parallelism", "must be at least 1"},
		{"lte", func(c *sampleConfig) { c.Parallelism = 65 }, "parallelism", "must be at most 64"},
		{"oneof uses yaml name", func(c *sampleConfig) { c.Format = "xml" }, "format", "must be one of: json console"},
		{"nested uses path", func(c *sampleConfig) { c.Retry.MaxAttempts = -1 }, "retry.max_attempts", "must be at least 0"},
		{"snake case fallback", func(c *sampleConfig) { c.PageSize = 0 }, "page_size", "must be greater than 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
				t.Errorf("code = %q", errors.CodeOf(err))
			}
			want := tc.field + ": " + tc.msg
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not contain %q", err.Error(), want)
			}

			pe, _ := errors.AsPipeError(err)
			fields, ok := pe.Details["fields"].([]FieldError)
			if !ok || len(fields) != 1 || fields[0].Field != tc.field {
				t.Errorf("fields detail = %#v", pe.Details["fields"])
			}
		})
	}
}

func TestValidate_MultipleFields(t *testing.T) {
	cfg := valid()
	cfg.Name = ""
	cfg.Parallelism = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined messages, got %q", err.Error())
	}
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate(42)
	if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("code = %q, err = %v", errors.CodeOf(err), err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"PageSize":    "page_size",
		"Parallelism": "parallelism",
		"A":           "a",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
