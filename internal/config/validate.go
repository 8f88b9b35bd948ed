package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/recgo/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field ranges and cross-field rules. Invalid values are
// reported as *model.ConfigurationError naming the dotted option, never
// clamped.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return &model.ConfigurationError{Option: "config", Value: nil, Reason: err.Error()}
	}

	if _, err := c.IndexKind(); err != nil {
		var ce *model.ConfigurationError
		if errors.As(err, &ce) {
			ce.Option = "retrieval.index_type"
		}
		return err
	}

	switch c.Artifacts.Source {
	case "local":
		if c.Artifacts.Dir == "" {
			return &model.ConfigurationError{Option: "artifacts.dir", Value: "", Reason: "required for local artifacts"}
		}
	case "s3":
		if c.Artifacts.Bucket == "" {
			return &model.ConfigurationError{Option: "artifacts.bucket", Value: "", Reason: "required for s3 artifacts"}
		}
	case "minio":
		if c.Artifacts.Bucket == "" {
			return &model.ConfigurationError{Option: "artifacts.bucket", Value: "", Reason: "required for minio artifacts"}
		}
		if c.Artifacts.Endpoint == "" {
			return &model.ConfigurationError{Option: "artifacts.endpoint", Value: "", Reason: "required for minio artifacts"}
		}
	}

	if c.Encoder.Kind == "hashing" && c.Encoder.Dimension == 0 {
		return &model.ConfigurationError{Option: "encoder.dimension", Value: 0, Reason: "required for the hashing encoder"}
	}
	if c.Encoder.Kind == "openai" && c.Encoder.Model == "" {
		return &model.ConfigurationError{Option: "encoder.model", Value: "", Reason: "required for the openai encoder"}
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	option := fe.Namespace()
	if _, rest, ok := strings.Cut(option, "."); ok {
		option = rest
	}
	reason := "failed " + fe.Tag()
	if p := fe.Param(); p != "" {
		reason = fmt.Sprintf("failed %s=%s", fe.Tag(), p)
	}
	return &model.ConfigurationError{Option: option, Value: fe.Value(), Reason: reason}
}
