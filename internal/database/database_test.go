package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/repairdesk/internal/config"
)

func TestConnectSQLiteSharesPoolWhenReaderMatches(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db")
	conns, err := Connect(config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn, MaxOpenConns: 1})
	require.NoError(t, err)

	assert.Same(t, conns.Writer, conns.Reader)
	assert.NoError(t, conns.Ping(context.Background()))
	assert.NoError(t, conns.Close())
}

func TestConnectSQLiteSeparateReader(t *testing.T) {
	dir := t.TempDir()
	conns, err := Connect(config.Database{
		Driver:    "sqlite",
		WriterDSN: "file:" + filepath.Join(dir, "writer.db"),
		ReaderDSN: "file:" + filepath.Join(dir, "reader.db"),
	})
	require.NoError(t, err)

	assert.NotSame(t, conns.Writer, conns.Reader)
	assert.NoError(t, conns.Ping(context.Background()))
	assert.NoError(t, conns.Close())
}

func TestConnectRejects(t *testing.T) {
	_, err := Connect(config.Database{Driver: "oracle", WriterDSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver: oracle")

	_, err = Connect(config.Database{Driver: "sqlite"})
	assert.ErrorContains(t, err, "empty DSN")
}
