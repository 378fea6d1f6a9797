package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pilot-net/pathwatch/internal/version"
)

func TestVersionCheckerTaskExecuteRunsWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{{"name": "v9.9.9"}})
	}))
	defer srv.Close()

	checker := version.NewCheckerWithTagsURL("1.0.0", srv.URL)
	mgr := testAlertManager()

	task := NewVersionCheckerTask(checker, mgr, time.Hour, testLogger())
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(mgr.ActiveAlerts(0)) == 0 {
		t.Error("expected an update-available alert to be raised")
	}
}
