package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProbe_Redirect(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})

	p := &HTTPProbe{ProbeName: "http", URL: srv.URL, Client: srv.Client()}
	res := p.Check(context.Background())
	if res.Outcome != Pass {
		t.Fatalf("outcome = %s, want pass (302 is an accepted status): %s", res.Outcome, res.Reason)
	}
}

func TestHTTPProbe_ConnectionRefused(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	p := &HTTPProbe{ProbeName: "http", URL: url}
	res := p.Check(context.Background())
	if res.Outcome != Indeterminate {
		t.Fatalf("outcome = %s, want indeterminate for connection failure", res.Outcome)
	}
	if !strings.Contains(res.Reason, "connection failed") {
		t.Errorf("reason = %q, want connection failure", res.Reason)
	}
}

func TestHTTPProbe_KnownErrorSignature(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("The change you requested was rejected. 422"))
	})

	p := &HTTPProbe{ProbeName: "http", URL: srv.URL, FailPatterns: []string{"422"}, Client: srv.Client()}
	res := p.Check(context.Background())
	if res.Outcome != Fail {
		t.Fatalf("outcome = %s, want fail for known error signature", res.Outcome)
	}
	if !strings.Contains(res.Reason, "422") {
		t.Errorf("reason = %q, want mention of the matched signature", res.Reason)
	}
}

func TestHTTPProbe_UnexpectedStatus(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p := &HTTPProbe{ProbeName: "http", URL: srv.URL, Client: srv.Client()}
	res := p.Check(context.Background())
	if res.Outcome != Fail {
		t.Fatalf("outcome = %s, want fail for HTTP 500", res.Outcome)
	}
}

func TestHTTPProbe_WantBody(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<title>Sign in · GitLab</title>"))
	})

	p := &HTTPProbe{ProbeName: "web", URL: srv.URL, Accept: []int{200}, WantBody: "GitLab", Client: srv.Client()}
	if res := p.Check(context.Background()); res.Outcome != Pass {
		t.Fatalf("outcome = %s, want pass: %s", res.Outcome, res.Reason)
	}

	p.WantBody = "SomethingElse"
	if res := p.Check(context.Background()); res.Outcome != Fail {
		t.Fatalf("outcome = %s, want fail when body marker is missing", res.Outcome)
	}
}

func TestHTTPProbe_Cancelled(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &HTTPProbe{ProbeName: "http", URL: srv.URL, Client: srv.Client()}
	if res := p.Check(ctx); res.Outcome != Indeterminate {
		t.Fatalf("outcome = %s, want indeterminate on cancellation", res.Outcome)
	}
}
