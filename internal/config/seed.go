// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SeedPrincipal is one principal record in a seed file. Exactly one of
// Password (hashed at load time) or PasswordHash must be set.
type SeedPrincipal struct {
	Kind         string   `koanf:"kind" validate:"oneof=employee user"`
	ID           string   `koanf:"id" validate:"required"`
	Email        string   `koanf:"email" validate:"omitempty,email"`
	Phones       []string `koanf:"phones"`
	Password     string   `koanf:"password" validate:"required_without=PasswordHash"`
	PasswordHash string   `koanf:"password_hash" validate:"excluded_with=Password"`
	Enabled      bool     `koanf:"enabled"`
	Authorities  []string `koanf:"authorities"`
}

// Seed is the parsed content of a principal seed file:
//
//	principals:
//	  - kind: employee
//	    id: "1"
//	    email: admin@workshop.local
//	    password: admin-password
//	    enabled: true
//	    authorities: [ADMIN_FULL]
type Seed struct {
	Principals []SeedPrincipal `koanf:"principals" validate:"dive"`
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}

	seed := &Seed{}
	if err := k.Unmarshal("", seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file %s: %w", path, err)
	}
	if err := getValidator().Struct(seed); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, translateValidationError(err))
	}
	for i, p := range seed.Principals {
		if p.Email == "" && len(p.Phones) == 0 {
			return nil, fmt.Errorf("invalid seed file %s: principals[%d] needs an email or a phone", path, i)
		}
	}
	return seed, nil
}
