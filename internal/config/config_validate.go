// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// koanf paths so messages point at the key an operator actually sets.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tag constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		return translateValidationError(err)
	}

	if err := c.validateToken(); err != nil {
		return err
	}
	if err := c.validateCookie(); err != nil {
		return err
	}
	if err := c.validateLogin(); err != nil {
		return err
	}
	return c.validateStore()
}

// translateValidationError flattens validator errors into one message.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.security.token.secret"; drop the root type.
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed '%s=%s'", field, fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s failed '%s'", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

// validateToken enforces the byte length of the signing key. The struct tag
// counts runes, the HMAC key is bytes.
func (c *Config) validateToken() error {
	if len([]byte(c.Security.Token.Secret)) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.IsProduction() && strings.Contains(strings.ToLower(c.Security.Token.Secret), "changeme") {
		return fmt.Errorf("JWT_SECRET must not be a placeholder in production")
	}
	return nil
}

func (c *Config) validateCookie() error {
	cookie := c.Security.Cookie
	if strings.EqualFold(cookie.SameSite, "none") && !cookie.Secure {
		return fmt.Errorf("AUTH_COOKIE_SAME_SITE=none requires AUTH_COOKIE_SECURE=true")
	}
	if c.IsProduction() && !cookie.Secure {
		return fmt.Errorf("AUTH_COOKIE_SECURE must be true in production")
	}
	if strings.ContainsAny(cookie.Name, " ;,=") {
		return fmt.Errorf("AUTH_COOKIE_NAME contains invalid characters: %q", cookie.Name)
	}
	return nil
}

func (c *Config) validateLogin() error {
	login := c.Security.Login
	if login.Path == login.InternalPath {
		return fmt.Errorf("LOGIN_PATH and INTERNAL_LOGIN_PATH must differ")
	}
	if !strings.HasPrefix(login.InternalPath, c.Security.SecuredPath) {
		return fmt.Errorf("INTERNAL_LOGIN_PATH %q must be under SECURED_PATH %q",
			login.InternalPath, c.Security.SecuredPath)
	}
	if strings.EqualFold(login.EmailHeader, login.PasswordHeader) {
		return fmt.Errorf("LOGIN_EMAIL_HEADER and LOGIN_PASSWORD_HEADER must differ")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Backend == "badger" && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required when STORE_BACKEND=badger")
	}
	return nil
}
