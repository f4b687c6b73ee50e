package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"trendwatch/report"
)

func TestNewWebhook_UnknownKind(t *testing.T) {
	if _, err := NewWebhook("slack", "https://example.com", nil); err == nil {
		t.Fatal("expected error for unknown webhook kind")
	}
}

func TestWebhook_Formats(t *testing.T) {
	tests := []struct {
		kind string
		want report.Format
	}{
		{"feishu", report.FormatFeishu},
		{"dingtalk", report.FormatDingTalk},
		{"wework", report.FormatWeWork},
		{"ntfy", report.FormatNtfy},
	}
	for _, tt := range tests {
		w, err := NewWebhook(tt.kind, "https://example.com", nil)
		if err != nil {
			t.Fatalf("NewWebhook(%s): %v", tt.kind, err)
		}
		if got := w.Format(); got != tt.want {
			t.Errorf("%s format = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestWebhook_SendFeishu(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	wh, _ := NewWebhook("feishu", srv.URL, srv.Client())
	if err := wh.Send(context.Background(), "**热点**\n1. 测试"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["msg_type"] != "text" {
		t.Errorf("msg_type = %v", got["msg_type"])
	}
	content, _ := got["content"].(map[string]any)
	if content["text"] != "**热点**\n1. 测试" {
		t.Errorf("text = %v", content["text"])
	}
}

func TestWebhook_SendDingTalkTitle(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, _ := NewWebhook("dingtalk", srv.URL, srv.Client())
	if err := wh.Send(context.Background(), "当日汇总\n正文"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	md, _ := got["markdown"].(map[string]any)
	if md["title"] != "当日汇总" {
		t.Errorf("title = %v, want first line", md["title"])
	}
	if md["text"] != "当日汇总\n正文" {
		t.Errorf("text = %v", md["text"])
	}
}

func TestWebhook_SendNtfyRawBody(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, _ := NewWebhook("ntfy", srv.URL, srv.Client())
	if err := wh.Send(context.Background(), "plain message"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if body != "plain message" {
		t.Errorf("ntfy body = %q", body)
	}
}

func TestWebhook_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusForbidden)
	}))
	defer srv.Close()

	wh, _ := NewWebhook("wework", srv.URL, srv.Client())
	if err := wh.Send(context.Background(), "msg"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
