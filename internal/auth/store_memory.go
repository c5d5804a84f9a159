// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process CredentialStore for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Principal
	byEmail map[string]string
	byPhone map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Principal),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

// Put inserts or replaces a principal and its login indexes.
func (s *MemoryStore) Put(p *Principal) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("principal id is required")
	}
	if p.Login() == "" {
		return fmt.Errorf("principal %s has neither email nor phone", p.ID)
	}
	if err := ValidateAuthorities(p.Authorities); err != nil {
		return fmt.Errorf("principal %s: %w", p.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[p.ID]; ok {
		s.unindex(old)
	}
	stored := clonePrincipal(p)
	s.byID[p.ID] = stored
	if stored.Email != "" {
		s.byEmail[normalizeEmail(stored.Email)] = stored.ID
	}
	for _, phone := range stored.Phones {
		s.byPhone[normalizePhone(phone)] = stored.ID
	}
	return nil
}

// FindPrincipalByLogin looks identifier up as an email, then as a phone.
func (s *MemoryStore) FindPrincipalByLogin(_ context.Context, identifier string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[normalizeEmail(identifier)]; ok {
		return clonePrincipal(s.byID[id]), nil
	}
	if !looksLikeEmail(identifier) {
		if id, ok := s.byPhone[normalizePhone(identifier)]; ok {
			return clonePrincipal(s.byID[id]), nil
		}
	}
	return nil, ErrPrincipalNotFound
}

// Len returns the number of stored principals.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MemoryStore) unindex(p *Principal) {
	if p.Email != "" {
		delete(s.byEmail, normalizeEmail(p.Email))
	}
	for _, phone := range p.Phones {
		delete(s.byPhone, normalizePhone(phone))
	}
}
