package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"warbler/internal/config"
	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:          "test",
		DBDriver:     DriverSQLite,
		DBSQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared",
		DBSchemaMode: SchemaModeHybrid,
	}
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBDriver:                 DriverPostgres,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = DriverSQLite
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", config.Config{Env: "development", DBDriver: DriverPostgres}, true, true, false},
		{"hybrid prod", config.Config{Env: "production", DBDriver: DriverPostgres, DBSchemaMode: "hybrid"}, true, false, false},
		{"sql", config.Config{Env: "development", DBDriver: DriverPostgres, DBSchemaMode: "sql"}, true, false, false},
		{"auto prod refused", config.Config{Env: "production", DBDriver: DriverPostgres, DBSchemaMode: "auto"}, false, false, true},
		{"auto prod allowed", config.Config{Env: "production", DBDriver: DriverPostgres, DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"unknown mode", config.Config{Env: "development", DBDriver: DriverPostgres, DBSchemaMode: "yolo"}, false, false, true},
		{"sqlite hybrid", config.Config{Env: "test", DBDriver: DriverSQLite}, false, true, false},
		{"sqlite sql", config.Config{Env: "test", DBDriver: DriverSQLite, DBSchemaMode: "sql"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, "000001_init", ms[0].String())
	assert.Contains(t, ms[0].Up, "CREATE TABLE IF NOT EXISTS follows")
	assert.Contains(t, ms[0].Down, "DROP TABLE IF EXISTS users")
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("B")},
		"m/000002_second.down.sql": {Data: []byte("b")},
		"m/000001_first.up.sql":    {Data: []byte("A")},
		"m/000001_first.down.sql":  {Data: []byte("a")},
		"m/notes.txt":              {Data: []byte("ignored")},
		"m/bogus.up.sql":           {Data: []byte("ignored")},
	}
	ms, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "second", ms[1].Name)
	assert.Equal(t, "b", ms[1].Down)

	t.Run("missing down", func(t *testing.T) {
		_, err := loadMigrations(fstest.MapFS{"m/000001_x.up.sql": {Data: []byte("A")}}, "m")
		assert.ErrorContains(t, err, "no down script")
	})
}

func TestValidateAppliedVersions(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	assert.NoError(t, validateAppliedVersions(nil, ms))
	assert.NoError(t, validateAppliedVersions([]int{1}, ms))

	err = validateAppliedVersions([]int{1, 42}, ms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000042")
}

func TestMigrator_UpAndDown(t *testing.T) {
	db, err := ConnectWithOptions(sqliteConfig(t), ConnectOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close() })

	ms, err := loadMigrations(fstest.MapFS{
		"m/000001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY)")},
		"m/000001_widgets.down.sql": {Data: []byte("DROP TABLE widgets")},
		"m/000002_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY)")},
		"m/000002_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets")},
	}, "m")
	require.NoError(t, err)
	m := &Migrator{db: db, migrations: ms}
	ctx := context.Background()

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))
	applied, err = m.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.ErrorContains(t, m.Down(ctx, 2), "has not been applied")
	assert.ErrorContains(t, m.Down(ctx, 9), "not found")
}

func TestConnectWithOptions_SQLiteCascade(t *testing.T) {
	db, err := ConnectWithOptions(sqliteConfig(t), ConnectOptions{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close() })

	author := models.User{Username: "author", Email: "a@example.com", Password: "x", ImageURL: models.DefaultImageURL}
	fan := models.User{Username: "fan", Email: "f@example.com", Password: "x", ImageURL: models.DefaultImageURL}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&fan).Error)

	msg := models.Message{Text: "hello", Timestamp: time.Now().UTC(), UserID: author.ID}
	require.NoError(t, db.Create(&msg).Error)
	require.NoError(t, db.Create(&models.Like{UserID: fan.ID, MessageID: msg.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserBeingFollowedID: author.ID, UserFollowingID: fan.ID}).Error)

	require.NoError(t, db.Delete(&models.User{}, author.ID).Error)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConnectWithOptions_UnknownDriver(t *testing.T) {
	_, err := ConnectWithOptions(&config.Config{DBDriver: "oracle"}, ConnectOptions{})
	assert.Error(t, err)
}
