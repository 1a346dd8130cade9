package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpulse/gitpulse/internal/probe"
)

func checkByName(t *testing.T, probes []probe.Probe, name string) probe.Probe {
	t.Helper()
	for _, p := range probes {
		if p.Name() == name {
			return p
		}
	}
	t.Fatalf("no check named %q", name)
	return nil
}

func TestChecks_HealthyProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/version":
			w.Write([]byte(`{"version": "16.9.1"}`))
		case "/api/v4/projects/7":
			w.Write([]byte(`{"id": 7, "path_with_namespace": "mlops/train"}`))
		case "/api/v4/projects/7/runners":
			w.Write([]byte(`[{"id": 1, "active": true, "online": true, "status": "online"}]`))
		case "/api/v4/projects/7/pipelines":
			w.Write([]byte(`[{"id": 42, "status": "success", "ref": "main", "sha": "abc", "created_at": "` +
				time.Now().Format(time.RFC3339) + `"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	probes := Checks(NewClient(srv.URL, "secret"), "7")
	require.Len(t, probes, 4)

	for _, p := range probes {
		res := p.Check(context.Background())
		assert.Equal(t, probe.Pass, res.Outcome, "%s: %s", p.Name(), res.Reason)
	}
}

func TestChecks_NoRunnersIsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := checkByName(t, Checks(NewClient(srv.URL, "secret"), "7"), "runners_registered")
	res := p.Check(context.Background())
	assert.Equal(t, probe.Fail, res.Outcome)
	assert.Contains(t, res.Reason, "no runners registered")
}

func TestChecks_OfflineRunnersIsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "active": true, "online": false, "status": "offline"}]`))
	}))
	defer srv.Close()

	p := checkByName(t, Checks(NewClient(srv.URL, "secret"), "7"), "runners_registered")
	res := p.Check(context.Background())
	assert.Equal(t, probe.Fail, res.Outcome)
	assert.Contains(t, res.Reason, "none online")
}

func TestChecks_AuthRejectionIsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := checkByName(t, Checks(NewClient(srv.URL, "bad"), "7"), "api_version")
	res := p.Check(context.Background())
	assert.Equal(t, probe.Fail, res.Outcome, "an HTTP-level rejection is definitive")
}

func TestChecks_UnreachableAPIIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := checkByName(t, Checks(NewClient(url, "secret"), "7"), "pipelines_present")
	res := p.Check(context.Background())
	assert.Equal(t, probe.Indeterminate, res.Outcome, "a dead endpoint may just be booting")
}
