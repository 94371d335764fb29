// internal/store/store.go

// Package store defines the record persistence contract used by the raffle
// core and its implementations (memory, SQL through gorm, MongoDB).
package store

import (
	"context"
	"errors"
)

// Collection names used by the services.
const (
	CollectionRaffles   = "raffles"
	CollectionTickets   = "tickets"
	CollectionSellers   = "sellers"
	CollectionUsers     = "users"
	CollectionUserEmail = "user_emails"
	CollectionAuditLogs = "audit_logs"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrVersionConflict = errors.New("record version conflict")
	// ErrUnavailable marks infrastructure faults. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// Record is a single stored document. Attrs are the indexed attributes a
// List filter can match on; Data is the opaque JSON payload.
type Record struct {
	ID      string
	Version int64
	Attrs   map[string]string
	Data    []byte
}

// Filter matches records whose attributes equal every given value.
type Filter map[string]string

func (f Filter) Match(attrs map[string]string) bool {
	for k, v := range f {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// Store is the persistence collaborator. Each call succeeds or fails
// atomically for a single record; no multi-record transactions are implied.
//
// Put with Version 0 creates the record and fails with ErrAlreadyExists when
// the id is taken. Put with a non-zero Version is a compare-and-swap against
// the stored version and fails with ErrVersionConflict when it moved on, or
// ErrNotFound when the record is gone. The returned record carries the new
// version. Delete of an absent record is not an error.
type Store interface {
	Get(ctx context.Context, collection, id string) (Record, error)
	List(ctx context.Context, collection string, filter Filter) ([]Record, error)
	Put(ctx context.Context, collection string, rec Record) (Record, error)
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

func copyAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func copyData(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
