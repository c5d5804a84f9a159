// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key layout, one namespace per principal kind:
//
//	principal:<kind>:<id>           -> JSON Principal
//	login:<kind>:email:<email>      -> <id>
//	login:<kind>:phone:<phone>      -> <id>
const (
	principalKeyPrefix = "principal:"
	loginKeyPrefix     = "login:"
)

// BadgerStore is a durable CredentialStore for one principal kind.
type BadgerStore struct {
	db   *badger.DB
	kind PrincipalKind
}

// OpenBadger opens a BadgerDB at path, or an in-memory instance when path
// is empty.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for principals: %w", err)
	}
	return db, nil
}

// NewBadgerStore creates a store for principals of kind on db. Several
// stores may share one db.
func NewBadgerStore(db *badger.DB, kind PrincipalKind) *BadgerStore {
	return &BadgerStore{db: db, kind: kind}
}

func (s *BadgerStore) principalKey(id string) []byte {
	return []byte(principalKeyPrefix + string(s.kind) + ":" + id)
}

func (s *BadgerStore) emailKey(email string) []byte {
	return []byte(loginKeyPrefix + string(s.kind) + ":email:" + normalizeEmail(email))
}

func (s *BadgerStore) phoneKey(phone string) []byte {
	return []byte(loginKeyPrefix + string(s.kind) + ":phone:" + normalizePhone(phone))
}

// Put inserts or replaces a principal. It is used for seeding; the auth
// core itself never writes principals.
func (s *BadgerStore) Put(ctx context.Context, p *Principal) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("principal id is required")
	}
	if p.Login() == "" {
		return fmt.Errorf("principal %s has neither email nor phone", p.ID)
	}
	if err := ValidateAuthorities(p.Authorities); err != nil {
		return fmt.Errorf("principal %s: %w", p.ID, err)
	}
	if p.Kind == "" {
		p = clonePrincipal(p)
		p.Kind = s.kind
	}
	if p.Kind != s.kind {
		return fmt.Errorf("principal %s is %s, store holds %s", p.ID, p.Kind, s.kind)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Drop stale login indexes of the previous version.
		if old, err := s.getTxn(txn, p.ID); err == nil {
			if err := s.deleteIndexes(txn, old); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrPrincipalNotFound) {
			return err
		}

		if err := txn.Set(s.principalKey(p.ID), data); err != nil {
			return fmt.Errorf("set principal: %w", err)
		}
		if p.Email != "" {
			if err := txn.Set(s.emailKey(p.Email), []byte(p.ID)); err != nil {
				return fmt.Errorf("set email index: %w", err)
			}
		}
		for _, phone := range p.Phones {
			if err := txn.Set(s.phoneKey(phone), []byte(p.ID)); err != nil {
				return fmt.Errorf("set phone index: %w", err)
			}
		}
		return nil
	})
}

// FindPrincipalByLogin looks identifier up as an email, then as a phone.
func (s *BadgerStore) FindPrincipalByLogin(ctx context.Context, identifier string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var principal *Principal
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := s.resolve(txn, s.emailKey(identifier))
		if errors.Is(err, ErrPrincipalNotFound) && !looksLikeEmail(identifier) {
			id, err = s.resolve(txn, s.phoneKey(identifier))
		}
		if err != nil {
			return err
		}
		principal, err = s.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// Count returns the number of principals of this store's kind.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(principalKeyPrefix + string(s.kind) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerStore) resolve(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrPrincipalNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get login index: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read login index: %w", err)
	}
	return string(val), nil
}

func (s *BadgerStore) getTxn(txn *badger.Txn, id string) (*Principal, error) {
	item, err := txn.Get(s.principalKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}

	var p Principal
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal principal: %w", err)
	}
	return &p, nil
}

func (s *BadgerStore) deleteIndexes(txn *badger.Txn, p *Principal) error {
	if p.Email != "" {
		if err := txn.Delete(s.emailKey(p.Email)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete email index: %w", err)
		}
	}
	for _, phone := range p.Phones {
		if err := txn.Delete(s.phoneKey(phone)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete phone index: %w", err)
		}
	}
	return nil
}
