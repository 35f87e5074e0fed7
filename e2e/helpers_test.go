package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "E2ELOCALKEY"
	testSecretKey = "e2e-local-secret-key"
	testJWTSecret = "e2e-jwt-secret-0123456789abcdef0123456789"
)

var (
	binaryPaths    map[string]string
	binaryBuildErr error
	binaryOnce     sync.Once
	sharedTempDir  string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "datashare-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	stopPostgres()
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the datashare server.
type ServerConfig struct {
	Port        int
	DBType      string // sqlite, postgres
	DBDSN       string
	StoragePath string
}

// buildBinaries compiles the server and the CLI once per test run.
func buildBinaries(t *testing.T) map[string]string {
	t.Helper()

	binaryOnce.Do(func() {
		root := getProjectRoot(t)
		binaryPaths = make(map[string]string)

		for _, name := range []string{"datashare", "datashare-cli"} {
			out := filepath.Join(sharedTempDir, name)
			cmd := exec.Command("go", "build", "-o", out, "./cmd/"+name)
			cmd.Dir = root
			output, err := cmd.CombinedOutput()
			if err != nil {
				binaryBuildErr = fmt.Errorf("build %s: %w\nOutput: %s", name, err, output)
				return
			}
			binaryPaths[name] = out
		}
	})

	if binaryBuildErr != nil {
		t.Fatalf("failed to build binaries: %v", binaryBuildErr)
	}

	return binaryPaths
}

// getProjectRoot returns the directory holding go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a server config using local storage.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	content := fmt.Sprintf(`server:
  port: %d
  public_url: "http://127.0.0.1:%d"

database:
  type: %s
  dsn: "%s"

storage:
  driver: local
  access_key: %s
  secret_key: %s
  local:
    path: "%s"

auth:
  jwt_secret: %s
  cookie_secure: false
  bcrypt_cost: 4

log:
  level: error
`,
		cfg.Port,
		cfg.Port,
		cfg.DBType,
		cfg.DBDSN,
		testAccessKey,
		testSecretKey,
		cfg.StoragePath,
		testJWTSecret,
	)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600), "write config file")

	return configPath
}

// migrateDatabase runs the migrate command against the configured database.
func migrateDatabase(t *testing.T, configPath string) {
	t.Helper()

	cmd := exec.Command(buildBinaries(t)["datashare"], "migrate", "--config", configPath)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "migrate database: %s", output)
}

// startServer migrates the database and starts the server.
// Returns the base URL and a cleanup function that must be called to stop the server.
func startServer(t *testing.T, cfg ServerConfig) (string, func()) {
	t.Helper()

	configPath := createConfigFile(t, cfg)
	migrateDatabase(t, configPath)

	cmd := exec.Command(buildBinaries(t)["datashare"], "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start server")

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	waitForServer(t, baseURL, 10*time.Second)

	cleanup := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	}

	return baseURL, cleanup
}

// waitForServer polls the health endpoint until it answers or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "close port")

	return port
}

// newSessionClient returns an HTTP client that keeps cookies, like a browser.
func newSessionClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// doJSON sends body as JSON and decodes the response into out when non-nil.
func doJSON(t *testing.T, client *http.Client, method, url string, body, out any) *http.Response {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if out != nil && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, out), "decode %s", data)
	}
	return resp
}

// runCLI runs datashare-cli with an isolated config file, feeding stdin to
// the process.
func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(buildBinaries(t)["datashare-cli"], append([]string{"--config", configPath}, args...)...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "DATASHARE_PROFILE=", "DATASHARE_ENDPOINT=", "DATASHARE_SESSION=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}
