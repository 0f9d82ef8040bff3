package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tourneygate/internal/api"
	"github.com/mcoot/tourneygate/internal/factory"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/auth"
)

const (
	operatorName = "ops"
	operatorKey  = "correct-horse"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "tourneyctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/tourneyctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cliEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cliEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// cliEnv strips TOURNEYGATE_* so the caller's shell cannot leak a token into the run
func cliEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "TOURNEYGATE_") {
			env = append(env, kv)
		}
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

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

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{
		Logger: logger,
		AuthConfig: auth.Config{
			SessionDuration: time.Hour,
			Operators:       map[string]string{operatorName: string(hash)},
		},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:                 logger,
		AuthService:            app.AuthService,
		RegistrationController: app.RegistrationController,
		Monitor:                app.Monitor,
		HubManager:             app.HubManager,
		Profiles:               app.Profiles,
		Defaults:               model.DefaultRegistrationConfig(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type sessionResponse struct {
	Operator     string `json:"operator"`
	SessionToken string `json:"session_token"`
}

type attemptResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	QueuePosition int    `json:"queue_position"`
	RetryCount    int    `json:"retry_count"`
}

type tournamentResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	MaxCapacity          int    `json:"max_capacity"`
	CurrentRegistrations int    `json:"current_registrations"`
	Mode                 string `json:"mode"`
	PriorityGroups       []struct {
		ID string `json:"id"`
	} `json:"priority_groups"`
}

type queueEntryResponse struct {
	UserID   string `json:"user_id"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type lotteryResultResponse struct {
	Winners    []string `json:"winners"`
	Statistics struct {
		TotalEntries int `json:"total_entries"`
		Guaranteed   int `json:"guaranteed"`
	} `json:"statistics"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Components []struct {
		Name string `json:"name"`
	} `json:"components"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func login(t *testing.T, cli *cliRunner) string {
	t.Helper()

	output, err := cli.run("login", "--operator", operatorName, "--key", operatorKey)
	require.NoError(t, err, "output: %s", output)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestCLI_HashKey(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("hash-key", "s3cret")
	require.NoError(t, err, "output: %s", output)

	var resp struct {
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(resp.Hash), []byte("s3cret")))
}

func TestCLI_LoginAndLogout(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Operator routes fail before login
	output, err := cli.run("tournament", "list")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.run("login", "--operator", operatorName, "--key", "wrong")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")

	// Token is saved in the token file
	login(t, cli)
	output, err = cli.run("tournament", "list")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("logout")
	require.NoError(t, err, "output: %s", output)
	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Logged out", msg.Message)

	_, err = os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_TournamentAndRegistration(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := login(t, cli)

	output, err := cli.runWithToken(token, "tournament", "put", "spring", "--name", "Spring Open", "--capacity", "16")
	require.NoError(t, err, "output: %s", output)
	var tournament tournamentResponse
	require.NoError(t, json.Unmarshal([]byte(output), &tournament))
	assert.Equal(t, "spring", tournament.ID)
	assert.Equal(t, "first_come_first_served", tournament.Mode)

	output, err = cli.run("register", "spring", "--user", "alice")
	require.NoError(t, err, "output: %s", output)
	var attempt attemptResponse
	require.NoError(t, json.Unmarshal([]byte(output), &attempt))
	assert.Equal(t, "success", attempt.Status)
	assert.Equal(t, model.MsgRegistered, attempt.Message)

	// Policy rejections are reported in the attempt, not as CLI errors
	for range 2 {
		_, err = cli.run("register", "spring", "--user", "bob", "--rate-limit", "2")
		require.NoError(t, err)
	}
	output, err = cli.run("register", "spring", "--user", "bob", "--rate-limit", "2")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &attempt))
	assert.Equal(t, "failed", attempt.Status)
	assert.Equal(t, model.MsgRateLimited, attempt.Message)

	output, err = cli.run("retry", "spring", "--user", "carol", "--attempt", "a-1", "--retry-count", "1")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &attempt))
	assert.Equal(t, "success", attempt.Status)
	assert.Equal(t, 2, attempt.RetryCount)

	output, err = cli.runWithToken(token, "tournament", "get", "spring")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &tournament))
	assert.Equal(t, 4, tournament.CurrentRegistrations)

	output, err = cli.run("register", "missing", "--user", "alice")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &attempt))
	assert.Equal(t, model.MsgNotFound, attempt.Message)
}

func TestCLI_QueueCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := login(t, cli)

	_, err := cli.runWithToken(token, "tournament", "put", "spring", "--capacity", "16")
	require.NoError(t, err)

	for _, user := range []string{"alice", "bob"} {
		output, err := cli.run("queue", "join", "spring", "--user", user)
		require.NoError(t, err, "output: %s", output)
	}

	output, err := cli.run("queue", "status", "spring", "bob")
	require.NoError(t, err, "output: %s", output)
	var entry queueEntryResponse
	require.NoError(t, json.Unmarshal([]byte(output), &entry))
	assert.Equal(t, "waiting", entry.Status)
	assert.Equal(t, 2, entry.Position)

	output, err = cli.runWithToken(token, "queue", "drain", "spring", "--batch-size", "1")
	require.NoError(t, err, "output: %s", output)
	var drained struct {
		Activated []queueEntryResponse `json:"activated"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &drained))
	require.Len(t, drained.Activated, 1)
	assert.Equal(t, "alice", drained.Activated[0].UserID)

	output, err = cli.run("queue", "status", "spring", "nobody")
	require.Error(t, err)
	assert.Contains(t, output, "NOT_IN_QUEUE")
}

func TestCLI_LotteryWithPriorityGroups(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := login(t, cli)

	groups := `[{"id": "gold", "name": "Gold", "priority": 1, "guaranteed_spots": 1, "lottery_weight": 1,
		"criteria": [{"field": "tier", "operator": "equals", "value": "gold"}]}]`
	groupsFile := filepath.Join(t.TempDir(), "groups.json")
	require.NoError(t, os.WriteFile(groupsFile, []byte(groups), 0600))

	output, err := cli.runWithToken(token, "tournament", "put", "cup",
		"--capacity", "10", "--mode", "lottery", "--groups-file", groupsFile)
	require.NoError(t, err, "output: %s", output)
	var tournament tournamentResponse
	require.NoError(t, json.Unmarshal([]byte(output), &tournament))
	require.Len(t, tournament.PriorityGroups, 1)

	output, err = cli.runWithToken(token, "profile", "set", "dave", "tier=gold")
	require.NoError(t, err, "output: %s", output)

	for _, user := range []string{"alice", "bob", "dave"} {
		output, err = cli.run("lottery", "enter", "cup", "--user", user)
		require.NoError(t, err, "output: %s", output)
		var attempt attemptResponse
		require.NoError(t, json.Unmarshal([]byte(output), &attempt))
		assert.Equal(t, "lottery_entered", attempt.Status)
	}

	output, err = cli.run("lottery", "result", "cup")
	require.Error(t, err)
	assert.Contains(t, output, "LOTTERY_NOT_DRAWN")

	output, err = cli.runWithToken(token, "lottery", "draw", "cup", "--max-winners", "1")
	require.NoError(t, err, "output: %s", output)
	var result lotteryResultResponse
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, []string{"dave"}, result.Winners)
	assert.Equal(t, 3, result.Statistics.TotalEntries)
	assert.Equal(t, 1, result.Statistics.Guaranteed)

	output, err = cli.run("lottery", "winner", "cup", "dave")
	require.NoError(t, err, "output: %s", output)
	var winner struct {
		Winner bool `json:"winner"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &winner))
	assert.True(t, winner.Winner)
}

func TestCLI_Stats(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := login(t, cli)

	_, err := cli.runWithToken(token, "tournament", "put", "spring", "--capacity", "16")
	require.NoError(t, err)

	output, err := cli.run("stats", "spring")
	require.NoError(t, err, "output: %s", output)
	var stats struct {
		TournamentID string `json:"tournament_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, "spring", stats.TournamentID)

	output, err = cli.run("stats", "missing")
	require.Error(t, err)
	assert.Contains(t, output, "TOURNAMENT_NOT_FOUND")
}
