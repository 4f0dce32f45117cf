package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableBlock(table string, rows ...string) string {
	var b strings.Builder
	b.WriteString("LOCK TABLES `" + table + "` WRITE;\n")
	b.WriteString("/*!40000 ALTER TABLE `" + table + "` DISABLE KEYS */;\n\n")
	if len(rows) > 0 {
		b.WriteString("INSERT INTO `" + table + "` (`id`, `name`, `key`, `created_at`)\nVALUES\n")
		b.WriteString("\t" + strings.Join(rows, ",\n\t") + ";\n\n")
	}
	b.WriteString("/*!40000 ALTER TABLE `" + table + "` ENABLE KEYS */;\n")
	b.WriteString("UNLOCK TABLES;\n\n")
	return b.String()
}

var (
	fixtureOld = tableBlock("teams",
		"(1,'Team X','alpha','2019-01-01')",
		"(2,'Team Y','beta','2019-01-02')",
	) + tableBlock("users",
		"(10,'Ann','ann@example.com','2019-01-01')",
	)
	fixtureNew = tableBlock("teams",
		"(100,'Team X','alpha','2019-01-01')",
		"(300,'Team Z','gamma','2019-01-03')",
	) + tableBlock("users",
		"(70,'Ann','ann@example.com','2019-01-01')",
	)
)

// workspace holds the files of one command run.
type workspace struct {
	dir     string
	cfgPath string
	oldPath string
	newPath string
	out     *bytes.Buffer
}

// newWorkspace writes both dumps and a config file, points the package
// flags at them and captures command output. Everything is restored when
// the test ends.
func newWorkspace(t *testing.T, oldDump, newDump, extraConfig string) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		dir:     dir,
		oldPath: filepath.Join(dir, "old.sql"),
		newPath: filepath.Join(dir, "new.sql"),
		out:     &bytes.Buffer{},
	}
	require.NoError(t, os.WriteFile(w.oldPath, []byte(oldDump), 0o644))
	require.NoError(t, os.WriteFile(w.newPath, []byte(newDump), 0o644))

	cfgPath := filepath.Join(dir, "goalias.yaml")
	w.cfgPath = cfgPath
	cfgText := "logging:\n  level: error\n" + extraConfig
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgText), 0o644))

	originalCfgFile := cfgFile
	originalWriteKey := convertWriteKey
	originalExpect := convertExpectDigest
	originalSkip := skipMalformed
	cfgFile = cfgPath
	setOutputWriter(w.out)
	t.Cleanup(func() {
		cfgFile = originalCfgFile
		convertWriteKey = originalWriteKey
		convertExpectDigest = originalExpect
		skipMalformed = originalSkip
		resetOutputWriter()
	})
	return w
}

// appendConfig adds top-level YAML sections to the config file.
func (w *workspace) appendConfig(t *testing.T, yaml string) {
	t.Helper()
	f, err := os.OpenFile(w.cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(yaml)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func (w *workspace) args() []string {
	return []string{w.oldPath, w.newPath}
}

type aliasCall struct {
	PreviousID string `json:"previousId"`
	UserID     string `json:"userId"`
}

// fakeSegment records alias calls. Calls whose previousId is in fail get a 400.
type fakeSegment struct {
	*httptest.Server
	mu    sync.Mutex
	calls []aliasCall
	fail  map[string]bool
}

func newFakeSegment(t *testing.T, failPrevious ...string) *fakeSegment {
	t.Helper()
	f := &fakeSegment{fail: map[string]bool{}}
	for _, id := range failPrevious {
		f.fail[id] = true
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var c aliasCall
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.calls = append(f.calls, c)
		f.mu.Unlock()
		if f.fail[c.PreviousID] {
			rw.WriteHeader(http.StatusBadRequest)
			_, _ = rw.Write([]byte(`{"error":"rejected"}`))
			return
		}
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSegment) Calls() []aliasCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]aliasCall(nil), f.calls...)
}

func (f *fakeSegment) config() string {
	return "segment:\n" +
		"  write_key: wk_test\n" +
		"  endpoint: " + f.URL + "\n" +
		"  max_retries: 0\n" +
		"  retry_backoff: 1ms\n"
}
