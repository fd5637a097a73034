package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"linkbot.local/gee"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestReqID_PreservesIncoming(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "%s", ctx.RequestID())
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("response X-Request-ID: got %q, want %q", got, "abc")
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "abc" {
		t.Fatalf("body: got %q, want %q", got, "abc")
	}
}

func TestReqID_GeneratesUUIDWhenMissing(t *testing.T) {
	r := gee.New()
	r.Use(ReqID())
	r.GET("/id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "%s", ctx.RequestID())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))

	got := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("X-Request-ID %q is not a uuid: %v", got, err)
	}
	if body := rec.Body.String(); body != got {
		t.Fatalf("handler saw %q, response header %q", body, got)
	}
}

func TestAccessLog_EmitsJSONFields(t *testing.T) {
	buf := captureLogs(t)

	r := gee.New()
	r.Use(gee.Recovery(), ReqID(), AccessLog())
	r.GET("/items/:id", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	dec := json.NewDecoder(buf)
	for {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			break
		}
		if m["msg"] != "access" {
			continue
		}
		if m["request_id"] != "abc" {
			t.Fatalf("request_id: got %v, want %q", m["request_id"], "abc")
		}
		if m["path"] != "/items/7" {
			t.Fatalf("path: got %v, want %q", m["path"], "/items/7")
		}
		if m["route"] != "/items/:id" {
			t.Fatalf("route: got %v, want %q", m["route"], "/items/:id")
		}
		if m["status"] != float64(http.StatusOK) {
			t.Fatalf("status: got %v, want %d", m["status"], http.StatusOK)
		}
		return
	}
	t.Fatalf("did not find access log entry\nraw=%q", buf.String())
}

func TestAccessLog_ServerErrorsLogAtErrorLevel(t *testing.T) {
	buf := captureLogs(t)

	r := gee.New()
	r.Use(AccessLog(), gee.Recovery())
	r.GET("/panic", func(ctx *gee.Context) { panic("boom") })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))

	if !strings.Contains(buf.String(), `"level":"ERROR","msg":"access"`) {
		t.Fatalf("expected error-level access log, raw=%q", buf.String())
	}
}
