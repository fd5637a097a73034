package httpmiddleware

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"linkbot.local/gee"
	"linkbot.local/internal/platform/metrics"
)

type memoryReplay struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memoryReplay) Seen(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return true
	}
	m.seen[key] = true
	return false
}

var fixedNow = time.Unix(1_700_000_000, 0)

func signedRequest(priv ed25519.PrivateKey, ts time.Time, body string) *http.Request {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	sig := ed25519.Sign(priv, []byte(stamp+body))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", stamp)
	return req
}

func newSignedEngine(t *testing.T, replay ReplayGuard) (*gee.Engine, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}

	r := gee.New()
	r.POST("/interactions",
		DiscordSignature(SignatureOptions{
			PublicKey: pub,
			MaxSkew:   5 * time.Minute,
			Replay:    replay,
			Now:       func() time.Time { return fixedNow },
		}),
		func(ctx *gee.Context) {
			// body 必须在验签之后仍然可读
			b, _ := io.ReadAll(ctx.Req.Body)
			ctx.String(http.StatusOK, "%s", b)
		},
	)
	return r, priv
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp gee.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp.Message
}

func TestDiscordSignature_AcceptsValidRequest(t *testing.T) {
	r, priv := newSignedEngine(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, signedRequest(priv, fixedNow, `{"type":1}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Body.String(); got != `{"type":1}` {
		t.Fatalf("body seen by handler: got %q, want %q", got, `{"type":1}`)
	}
}

func TestDiscordSignature_Rejections(t *testing.T) {
	_, otherPriv, _ := ed25519.GenerateKey(nil)

	tests := []struct {
		name   string
		reason string
		want   string
		build  func(priv ed25519.PrivateKey) *http.Request
	}{
		{
			name:   "missing headers",
			reason: "missing",
			want:   "missing signature or timestamp",
			build: func(ed25519.PrivateKey) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{}`))
			},
		},
		{
			name:   "wrong key",
			reason: "invalid",
			want:   "invalid signature",
			build: func(ed25519.PrivateKey) *http.Request {
				return signedRequest(otherPriv, fixedNow, `{"type":1}`)
			},
		},
		{
			name:   "tampered body",
			reason: "invalid",
			want:   "invalid signature",
			build: func(priv ed25519.PrivateKey) *http.Request {
				req := signedRequest(priv, fixedNow, `{"type":1}`)
				req.Body = io.NopCloser(strings.NewReader(`{"type":2}`))
				return req
			},
		},
		{
			name:   "signature not hex",
			reason: "invalid",
			want:   "invalid signature",
			build: func(priv ed25519.PrivateKey) *http.Request {
				req := signedRequest(priv, fixedNow, `{}`)
				req.Header.Set("X-Signature-Ed25519", "zz")
				return req
			},
		},
		{
			name:   "too old",
			reason: "stale",
			want:   "stale request",
			build: func(priv ed25519.PrivateKey) *http.Request {
				return signedRequest(priv, fixedNow.Add(-6*time.Minute), `{}`)
			},
		},
		{
			name:   "from the future",
			reason: "stale",
			want:   "stale request",
			build: func(priv ed25519.PrivateKey) *http.Request {
				return signedRequest(priv, fixedNow.Add(6*time.Minute), `{}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, priv := newSignedEngine(t, nil)
			before := testutil.ToFloat64(metrics.SignatureRejections.WithLabelValues(tt.reason))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, tt.build(priv))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if got := errorMessage(t, rec); got != tt.want {
				t.Fatalf("message: got %q, want %q", got, tt.want)
			}
			after := testutil.ToFloat64(metrics.SignatureRejections.WithLabelValues(tt.reason))
			if after != before+1 {
				t.Fatalf("signature_rejections_total{reason=%q}: got +%v, want +1", tt.reason, after-before)
			}
		})
	}
}

func TestDiscordSignature_WithinSkewIsAccepted(t *testing.T) {
	r, priv := newSignedEngine(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, signedRequest(priv, fixedNow.Add(-4*time.Minute), `{}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestDiscordSignature_RejectsReplay(t *testing.T) {
	r, priv := newSignedEngine(t, &memoryReplay{})

	first := signedRequest(priv, fixedNow, `{"type":1}`)
	replay := signedRequest(priv, fixedNow, `{"type":1}`)
	// 同一个签名换成大写 hex 也算重放
	replay.Header.Set("X-Signature-Ed25519", strings.ToUpper(replay.Header.Get("X-Signature-Ed25519")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, replay)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := errorMessage(t, rec); got != "replayed request" {
		t.Fatalf("message: got %q, want %q", got, "replayed request")
	}
}
