package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>t</title></head><body>
			<article>
				<h1>标题</h1>
				<p>这是正文的第一段，包含了新闻的主要内容。</p>
				<p>这是第二段。</p>
			</article>
		</body></html>`))
	}))
	defer srv.Close()

	ex := NewWithClient(srv.Client())
	got, err := ex.Excerpt(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Excerpt: %v", err)
	}
	if !strings.Contains(got, "第一段") {
		t.Errorf("excerpt missing body text: %q", got)
	}
}

func TestExcerpt_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	ex := NewWithClient(srv.Client())
	if _, err := ex.Excerpt(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestTrim(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		if got := Trim("a \n b\t\tc"); got != "a b c" {
			t.Errorf("Trim = %q", got)
		}
	})

	t.Run("truncates on rune boundary", func(t *testing.T) {
		long := strings.Repeat("汉", 500)
		got := Trim(long)
		if !strings.HasSuffix(got, "…") {
			t.Errorf("truncated excerpt must end with ellipsis: %q", got[len(got)-12:])
		}
		if n := utf8.RuneCountInString(got); n != maxExcerptRunes+1 {
			t.Errorf("excerpt length = %d runes, want %d", n, maxExcerptRunes+1)
		}
	})

	t.Run("short text unchanged", func(t *testing.T) {
		if got := Trim("短文本"); got != "短文本" {
			t.Errorf("Trim = %q", got)
		}
	})
}
