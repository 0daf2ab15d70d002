package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/config"
	"github.com/Additional-Code/repairdesk/internal/migration"
	"github.com/Additional-Code/repairdesk/internal/testutil"
)

func TestMigratorRoundTrip(t *testing.T) {
	ctx := context.Background()
	conns := testutil.OpenOrdersDB(t)

	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	mig, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)

	status, err := mig.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	assert.Equal(t, int64(1), status[0].Version)
	assert.True(t, status[0].Applied)

	require.NoError(t, mig.Up(ctx), "re-running up is a no-op")

	require.NoError(t, mig.Down(ctx, 0, true))
	status, err = mig.Status(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.False(t, s.Applied, s.Source)
	}
	require.NoError(t, mig.Down(ctx, 1, false), "nothing left to roll back")

	require.NoError(t, mig.Up(ctx))
	_, err = conns.Writer.NewSelect().Table("orders").Count(ctx)
	assert.NoError(t, err)
}

func TestUnsupportedDriver(t *testing.T) {
	conns := testutil.OpenOrdersDB(t)
	_, err := migration.New(config.Config{Database: config.Database{Driver: "oracle"}}, conns, nil)
	assert.Error(t, err)
}
