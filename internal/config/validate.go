package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rileyhilliard/karasu/internal/errors"
)

var validate = newValidator()

// newValidator reports fields by their config key (backend.url) rather than
// the Go field name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return "-"
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the config and returns a structured error naming the first
// offending key.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig, "No configuration loaded", "")
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WrapWithCode(err, errors.ErrConfig, "Config validation failed", "")
	}

	fe := verrs[0]
	key := configKey(fe.Namespace())
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Invalid value for %s: %v", key, fe.Value()),
		suggestionFor(key, fe))
}

// configKey strips the root struct name: "Config.backend.url" -> "backend.url".
func configKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func suggestionFor(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Set %s in karasu.yaml or %s", key, EnvName(key))
	case "url":
		return "Use a full URL such as http://localhost:5000"
	case "hostname_port":
		return "Use host:port, for example 127.0.0.1:5000"
	case "oneof":
		return fmt.Sprintf("Allowed values: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", key, fallback(fe.Param(), "0"))
	case "min", "max":
		return fmt.Sprintf("%s must be between 1 and 600", key)
	default:
		return fmt.Sprintf("Check %s", key)
	}
}

// EnvName returns the environment variable that overrides a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
