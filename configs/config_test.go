package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: order-api
  http_addr: ":8080"
http:
  read_timeout: 5s
  write_timeout: 30s
mysql:
  dsn: "user:pass@tcp(localhost:3306)/minshop?parseTime=true"
kafka:
  brokers: ["localhost:9092"]
  topic_status: order.status.changed
  group_id: order-api
toss:
  base_url: https://api.tosspayments.com
  secret_key: test_sk_base
  timeout: 10s
`

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("base only", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{"base.yaml": baseYAML})

		cfg, err := Load(dir, "dev")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.App.HTTPAddr)
		assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "test_sk_base", cfg.Toss.SecretKey)
	})

	t.Run("env file overrides base", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"base.yaml": baseYAML,
			"prod.yaml": "app:\n  http_addr: \":80\"\ntoss:\n  secret_key: live_sk_abc\n",
		})

		cfg, err := Load(dir, "prod")
		require.NoError(t, err)
		assert.Equal(t, ":80", cfg.App.HTTPAddr)
		assert.Equal(t, "live_sk_abc", cfg.Toss.SecretKey)
		// Untouched keys keep base values.
		assert.Equal(t, "order-api", cfg.App.Name)
	})

	t.Run("environment variables override files", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{"base.yaml": baseYAML})
		t.Setenv("ORDERAPI_TOSS__SECRET_KEY", "env_sk_xyz")
		t.Setenv("ORDERAPI_MYSQL__DSN", "root:@tcp(db:3306)/minshop")

		cfg, err := Load(dir, "dev")
		require.NoError(t, err)
		assert.Equal(t, "env_sk_xyz", cfg.Toss.SecretKey)
		assert.Equal(t, "root:@tcp(db:3306)/minshop", cfg.MySQL.DSN)
	})

	t.Run("missing base fails", func(t *testing.T) {
		_, err := Load(t.TempDir(), "dev")
		assert.Error(t, err)
	})

	t.Run("validation catches missing required keys", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"base.yaml": "app:\n  http_addr: \":8080\"\n",
		})
		_, err := Load(dir, "dev")
		assert.ErrorContains(t, err, "mysql.dsn")
	})
}
