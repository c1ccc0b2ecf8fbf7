package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	t      *testing.T
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:          "test",
		JWTSecret:    "test-secret-key-12345678901234567890123456789012",
		BcryptCost:   bcrypt.MinCost,
		DBDriver:     database.DriverSQLite,
		DBSQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}
}

// newTestApp builds the full middleware and route stack on an in-memory
// sqlite database. withRedis backs sessions and caching with miniredis.
func newTestApp(t *testing.T, withRedis bool) *testApp {
	t.Helper()
	cfg := testConfig(t)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{
		ApplySchema: true,
		LogLevel:    logger.Silent,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache.SetClient(rdb)
		t.Cleanup(func() {
			cache.SetClient(nil)
			_ = rdb.Close()
		})
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	app := s.NewApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return &testApp{t: t, server: s, app: app, db: db}
}

// client carries cookies between requests like a browser would.
type client struct {
	ta      *testApp
	cookies map[string]string
}

func (ta *testApp) client() *client {
	return &client{ta: ta, cookies: map[string]string{}}
}

type result struct {
	status   int
	location string
	body     map[string]any
	flashes  []Flash
}

func (cl *client) do(req *http.Request) result {
	t := cl.ta.t
	t.Helper()
	for name, value := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := cl.ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	res := result{status: resp.StatusCode, location: resp.Header.Get(fiber.HeaderLocation)}
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck.Value
	}
	if raw := cl.cookies[flashCookie]; raw != "" {
		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(b, &res.flashes)
		}
	}

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(data, &res.body))
	}
	return res
}

func (cl *client) get(path string) result {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) result {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return cl.do(req)
}

// signup registers name through the HTTP flow and leaves cl logged in.
func (cl *client) signup(name string) *models.User {
	t := cl.ta.t
	t.Helper()
	res := cl.post("/signup", url.Values{
		"username": {name},
		"email":    {name + "@test.com"},
		"password": {"password"},
	})
	require.Equal(t, http.StatusFound, res.status, "signup %s: %v", name, res.body)
	require.Equal(t, "/", res.location)

	var u models.User
	require.NoError(t, cl.ta.db.Where("username = ?", name).First(&u).Error)
	return &u
}

func assertRefused(t *testing.T, res result) {
	t.Helper()
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)
	require.NotEmpty(t, res.flashes)
	last := res.flashes[len(res.flashes)-1]
	assert.Equal(t, models.AccessUnauthorized, last.Message)
	assert.Equal(t, FlashDanger, last.Category)
}

func (ta *testApp) count(model any) int64 {
	ta.t.Helper()
	var n int64
	require.NoError(ta.t, ta.db.Model(model).Count(&n).Error)
	return n
}
