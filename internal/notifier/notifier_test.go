package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/retry"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func stubProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func serverPort(t *testing.T, url string) string {
	t.Helper()
	parts := strings.Split(url, ":")
	return parts[len(parts)-1]
}

func fastNotifier() *Notifier {
	n := New()
	n.policy = retry.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	return n
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := stubConfigDir(t)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, expectedDefault, dir)

	require.NoError(t, os.MkdirAll(expectedDefault, 0755))
	customDir := "/custom/habitual/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	require.NoError(t, os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644))

	dir, err = GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, customDir, dir)
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	_, _, err := findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "missing lockfile")

	tests := []struct {
		name     string
		content  string
		errMatch string
	}{
		{"two part format", "8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "8080|12345|", "secret"},
		{"empty port", "|12345|s3cret", "port"},
		{"port out of range", "99999|12345|s3cret", "range"},
		{"bad pid", "8080|abc|s3cret", "process ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(lockfilePath, []byte(tt.content), 0644))
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMatch)
		})
	}

	require.NoError(t, os.WriteFile(lockfilePath, []byte("8080|12345|s3cret"), 0644))

	stubProcess(t, "")
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "process not running")

	stubProcess(t, "other-app")
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err, "wrong executable")

	stubProcess(t, constants.TrayProcessName)
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	require.NoError(t, err)
	assert.Equal(t, "8080", port)
	assert.Equal(t, "s3cret", secret)
}

func TestSendNotification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get(constants.SecretHeader) != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	port := serverPort(t, server.URL)
	client := server.Client()

	assert.NoError(t, sendNotification(ctx, client, port, "test-secret", WebhookPayload{Text: "hello"}))

	err := sendNotification(ctx, client, port, "wrong-secret", WebhookPayload{Text: "hello"})
	assert.ErrorIs(t, err, errTrayRejected)

	err = sendNotification(ctx, client, port, "test-secret", WebhookPayload{Text: "fail"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errTrayRejected)
}

func writeLockfile(t *testing.T, configDir, port string) {
	t.Helper()
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	require.NoError(t, os.MkdirAll(trayDir, 0755))
	content := fmt.Sprintf("%s|4242|test-secret", port)
	require.NoError(t, os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(content), 0644))
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var received WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	writeLockfile(t, stubConfigDir(t), serverPort(t, server.URL))
	stubProcess(t, constants.TrayProcessName)

	err := fastNotifier().Send(context.Background(), models.Notification{
		Content: models.Content{Title: "Time for your habit: Read", Body: "Scheduled: Monday, 09:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Time for your habit: Read: Scheduled: Monday, 09:30", received.Text)
	assert.Equal(t, uint32(constants.NotificationDurationMs), received.DurationMs)
}

func TestSendDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	writeLockfile(t, stubConfigDir(t), serverPort(t, server.URL))
	stubProcess(t, constants.TrayProcessName)

	err := fastNotifier().Notify(context.Background(), "hello")
	assert.ErrorIs(t, err, errTrayRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFormatText(t *testing.T) {
	assert.Equal(t, "T", FormatText(models.Notification{Content: models.Content{Title: "T"}}))
	assert.Equal(t, "B", FormatText(models.Notification{Content: models.Content{Body: "B"}}))
	assert.Equal(t, "T: B", FormatText(models.Notification{Content: models.Content{Title: "T", Body: "B"}}))
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := &LogSender{Out: &buf}
	at := time.Date(2024, time.June, 3, 9, 30, 0, 0, time.UTC)

	err := sender.Send(context.Background(), models.Notification{
		Content: models.Content{Title: "Time for your habit: Read"},
		Trigger: models.Trigger{Date: at},
	})
	require.NoError(t, err)
	assert.Equal(t, "[Mon 09:30] Time for your habit: Read\n", buf.String())
}
