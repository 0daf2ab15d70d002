// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/database"
	"github.com/Additional-Code/repairdesk/internal/migration"
)

var dbSeq atomic.Int64

// OpenOrdersDB opens a migrated in-memory SQLite database.
// Each call gets its own shared-cache database so bun and goose see the same schema.
func OpenOrdersDB(t *testing.T) *database.Connections {
	t.Helper()

	cfg := config.Config{
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    fmt.Sprintf("file:orders_%d_%s?mode=memory&cache=shared", dbSeq.Add(1), sanitize(t.Name())),
			MaxOpenConns: 1,
		},
	}
	cfg.Database.ReaderDSN = cfg.Database.WriterDSN

	conns, err := database.Connect(cfg.Database)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conns.Close() })

	mig, err := migration.New(cfg, conns, zap.NewNop())
	if err != nil {
		t.Fatalf("build migrator: %v", err)
	}
	if err := mig.Up(context.Background()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conns
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
