package httpapi

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"linkbot.local/gee"
	"linkbot.local/internal/app/linkbot/currency"
	"linkbot.local/internal/app/linkbot/interactions"
	"linkbot.local/internal/app/linkbot/resolve"
	"linkbot.local/internal/platform/httpmiddleware"
)

func newTestServer(t *testing.T) (*gee.Engine, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	conv, err := currency.NewConverter(0.12)
	if err != nil {
		t.Fatal(err)
	}
	r := resolve.Default()
	d := interactions.NewDispatcher(r, conv, interactions.Texts{
		CreatorID:      "42",
		SpreadsheetURL: "https://example.com/sheet",
		RegisterURL:    "https://example.com/register",
	}, nil)

	engine := gee.Default()
	RegisterHealthRoutes(engine)
	RegisterWebhookRoutes(engine, d, httpmiddleware.SignatureOptions{PublicKey: pub, MaxSkew: 5 * time.Minute})
	RegisterAPIRoutes(engine.Group("/api/v1"), r, conv, nil)
	return engine, priv
}

func postInteraction(t *testing.T, engine *gee.Engine, priv ed25519.PrivateKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := ed25519.Sign(priv, []byte(ts+body))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", ts)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

type interactionReply struct {
	Type int `json:"type"`
	Data *struct {
		Content string `json:"content"`
		Flags   int    `json:"flags"`
	} `json:"data"`
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) interactionReply {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var out interactionReply
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestInteractions_Ping(t *testing.T) {
	engine, priv := newTestServer(t)

	rec := postInteraction(t, engine, priv, `{"id":"1","application_id":"2","type":1,"token":"t","version":1}`)
	out := decodeReply(t, rec)

	if out.Type != 1 {
		t.Fatalf("type: got %d, want %d", out.Type, 1)
	}
	if out.Data != nil {
		t.Fatalf("PONG must not carry data, got %+v", out.Data)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type: got %q, want %q", ct, "application/json")
	}
}

func TestInteractions_Commands(t *testing.T) {
	engine, priv := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		content string
		flags   int
	}{
		{
			name:    "info",
			body:    `{"id":"1","type":2,"guild_id":"9","data":{"id":"5","name":"info","type":1}}`,
			content: "This bot was created by <@42>",
		},
		{
			name:    "decode",
			body:    `{"id":"1","type":2,"data":{"id":"5","name":"decode","type":1,"options":[{"name":"link","type":3,"value":"https://www.cssbuy.com/item-micro-7231917454.html"}]}}`,
			content: "https://weidian.com/item.html?itemID=7231917454",
			flags:   64,
		},
		{
			name:    "yuan number option",
			body:    `{"id":"1","type":2,"data":{"id":"5","name":"yuan","type":1,"options":[{"name":"amount","type":10,"value":100}]}}`,
			content: "¥100.00 = €12.00",
			flags:   64,
		},
		{
			name:    "missing option",
			body:    `{"id":"1","type":2,"data":{"id":"5","name":"yupoo","type":1}}`,
			content: "Please provide a value for /yupoo.",
			flags:   64,
		},
		{
			name:    "unknown command",
			body:    `{"id":"1","type":2,"data":{"id":"5","name":"nope","type":1}}`,
			content: "Command not recognized.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := decodeReply(t, postInteraction(t, engine, priv, tt.body))
			if out.Type != 4 {
				t.Fatalf("type: got %d, want %d", out.Type, 4)
			}
			if out.Data == nil {
				t.Fatal("data: got nil")
			}
			if out.Data.Content != tt.content {
				t.Fatalf("content: got %q, want %q", out.Data.Content, tt.content)
			}
			if out.Data.Flags != tt.flags {
				t.Fatalf("flags: got %d, want %d", out.Data.Flags, tt.flags)
			}
		})
	}
}

func TestInteractions_BadRequests(t *testing.T) {
	engine, priv := newTestServer(t)

	if rec := postInteraction(t, engine, priv, `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	// MESSAGE_COMPONENT
	if rec := postInteraction(t, engine, priv, `{"id":"1","type":3,"data":{"custom_id":"x","component_type":2}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestInteractions_RequiresSignature(t *testing.T) {
	engine, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHealthz(t *testing.T) {
	engine, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q, want 200 %q", rec.Code, rec.Body.String(), "ok")
	}
}

func postJSON(engine *gee.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Decode(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := postJSON(engine, "/api/v1/decode", `{"link":"https://www.cssbuy.com/item-1688-846137330434.html"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var out DecodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	want := DecodeResponse{Site: "cssbuy", Platform: "1688", OK: true, Result: "https://detail.1688.com/offer/846137330434.html"}
	if out != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}

	rec = postJSON(engine, "/api/v1/decode", `{"link":"https://example.com/x"}`)
	out = DecodeResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.OK || out.Site != "unknown" || out.Result == "" {
		t.Fatalf("unsupported link: got %+v", out)
	}
}

func TestAPI_ConvertAndYupoo(t *testing.T) {
	engine, _ := newTestServer(t)

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/v1/convert", `{"link":"https://detail.tmall.com/item.htm?id=601"}`, "https://detail.tmall.com/item.htm?id=601"},
		// 识别不了的淘宝链接原样返回
		{"/api/v1/convert", `{"link":"https://www.taobao.com/"}`, "https://www.taobao.com/"},
		{"/api/v1/yupoo", `{"link":"https://a.yupoo.com/albums/9"}`, "https://a.zhidian-inc.cn/albums/9"},
	}
	for _, tt := range tests {
		rec := postJSON(engine, tt.path, tt.body)
		var out ResultResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		if out.Result != tt.want {
			t.Fatalf("%s %s: got %q, want %q", tt.path, tt.body, out.Result, tt.want)
		}
	}
}

func TestAPI_LinkValidation(t *testing.T) {
	engine, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty link", `{"link":"  "}`},
		{"too long", `{"link":"` + strings.Repeat("a", maxLinkLength+1) + `"}`},
		{"unknown field", `{"link":"x","extra":true}`},
		{"not json", `link=x`},
	}
	for _, tt := range tests {
		if rec := postJSON(engine, "/api/v1/decode", tt.body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want %d", tt.name, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestAPI_Yuan(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/yuan?amount=99.99", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var out YuanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	want := YuanResponse{Yuan: "99.99", Euro: "12.00", Rate: "0.12", Text: "¥99.99 = €12.00"}
	if out != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}

	for _, q := range []string{"", "?amount=", "?amount=abc"} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/yuan"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("yuan%s: got %d, want %d", q, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestValidateLink(t *testing.T) {
	if got, err := ValidateLink("  https://a.b/c \n"); err != nil || got != "https://a.b/c" {
		t.Fatalf("got %q %v", got, err)
	}
	if _, err := ValidateLink(""); err != ErrEmptyLink {
		t.Fatalf("empty: got %v, want %v", err, ErrEmptyLink)
	}
	// 按字符而不是字节计数
	if _, err := ValidateLink(strings.Repeat("淘", maxLinkLength)); err != nil {
		t.Fatalf("multibyte at limit: %v", err)
	}
}
