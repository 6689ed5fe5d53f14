package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/relayprov/internal/profile"
	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	apnPattern          = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.-]{0,62}$`)
	zerotierPattern     = regexp.MustCompile(`^[0-9a-f]{16}$`)
	endpointNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,31}$`)
	packageNamePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)
	streamPathPattern   = regexp.MustCompile(`^/[A-Za-z0-9/_-]*$`)
	sshGitPattern       = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+:[a-zA-Z0-9._/~-]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})

		_ = v.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
			return profile.Exists(fl.Field().String())
		})

		_ = v.RegisterValidation("apn", func(fl validator.FieldLevel) bool {
			apn := fl.Field().String()
			return apn == "" || apnPattern.MatchString(apn)
		})

		_ = v.RegisterValidation("zerotier_network", func(fl validator.FieldLevel) bool {
			return zerotierPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("endpoint_name", func(fl validator.FieldLevel) bool {
			return endpointNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("package_name", func(fl validator.FieldLevel) bool {
			return packageNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("abs_path", func(fl validator.FieldLevel) bool {
			return filepath.IsAbs(fl.Field().String())
		})

		_ = v.RegisterValidation("stream_path", func(fl validator.FieldLevel) bool {
			return streamPathPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("git_url", func(fl validator.FieldLevel) bool {
			return isGitURL(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks options against their struct tags and the cross-field
// rules tags cannot express.
func Validate(opts *Options) error {
	if opts == nil {
		return relayerrors.NewValidationError("", "options are nil", nil)
	}

	if err := validatorInstance().Struct(opts); err != nil {
		return convertValidationError(err)
	}

	if opts.VPN.Tailscale.AuthKey != "" && !opts.VPN.Tailscale.Enabled {
		return relayerrors.NewValidationError("vpn.tailscale.auth_key", "set but tailscale is not enabled", nil)
	}
	if opts.MAVLink.TCPPort != 0 {
		for i, ep := range opts.MAVLink.Endpoints {
			if ep.Mode == "server" && ep.Port == opts.MAVLink.TCPPort {
				return relayerrors.NewValidationError(
					fmt.Sprintf("mavlink.endpoints[%d].port", i),
					fmt.Sprintf("collides with tcp_port %d", opts.MAVLink.TCPPort),
					nil,
				)
			}
		}
	}
	return nil
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := fieldName(ve)
		msg := fmt.Sprintf("failed validation for tag '%s'", ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("failed validation for tag '%s=%s'", ve.Tag(), ve.Param())
		}
		return relayerrors.NewValidationError(field, msg, err)
	}
	return relayerrors.NewValidationError("", err.Error(), err)
}

// fieldName drops the root struct name from the namespace, leaving the
// dotted yaml path.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func isGitURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if u, err := url.Parse(raw); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "ssh", "git":
			return u.Host != ""
		case "file":
			return u.Path != ""
		}
	}
	if sshGitPattern.MatchString(raw) {
		return true
	}
	return strings.HasPrefix(raw, "/") && !strings.Contains(raw, "\x00")
}
