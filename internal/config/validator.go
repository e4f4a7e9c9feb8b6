package config

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	cliperrors "clipline/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern    = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	envPrefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*_$`)
	logLevels        = map[string]struct{}{"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}}
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
			_, ok := logLevels[strings.ToLower(fl.Field().String())]
			return ok
		})

		_ = v.RegisterValidation("env_prefix", func(fl validator.FieldLevel) bool {
			return envPrefixPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema validation on the configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return cliperrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	return nil
}

func convertValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return cliperrors.NewValidationError("config", err.Error(), err)
	}

	first := verrs[0]
	field := strings.TrimPrefix(first.Namespace(), "Config.")
	var message string
	switch first.Tag() {
	case "required":
		message = "is required"
	case "semver":
		message = "must be a semantic version, e.g. 1.0.0"
	case "log_level":
		message = "must be one of trace, debug, info, warn, error"
	case "env_prefix":
		message = "must be UPPER_SNAKE ending in an underscore, e.g. CLIPLINE_"
	default:
		message = "failed rule " + first.Tag()
	}

	return cliperrors.NewValidationError(field, message, err)
}
