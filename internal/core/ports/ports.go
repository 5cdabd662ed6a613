package ports

import (
	"cirgen/internal/data/store"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/ir"
	"context"
)

// HeaderParser turns a header file into its declaration list.
type HeaderParser interface {
	ParseFile(path string, content []byte) (*header.Header, error)
}

// SnapshotStore abstracts persistence of built IR documents for caching
// and history.
type SnapshotStore interface {
	Save(ctx context.Context, snap store.Snapshot, doc ir.Document) (store.Snapshot, error)
	FindByHash(ctx context.Context, module, hash string) (store.Snapshot, ir.Document, error)
	List(ctx context.Context, module string, limit int) ([]store.Snapshot, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ HeaderParser  = (*header.Parser)(nil)
	_ SnapshotStore = (*store.Store)(nil)
)
