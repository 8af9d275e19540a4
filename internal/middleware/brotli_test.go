package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func brotliTestRouter(body ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/payload", func(c *gin.Context) {
		for _, chunk := range body {
			_, _ = c.Writer.WriteString(chunk)
		}
	})
	return r
}

func TestBrotli_MultiChunkBody(t *testing.T) {
	head := strings.Repeat("x", 2048)
	tail := `{"trailing":"chunk"}`
	r := brotliTestRouter(head, tail)

	req := httptest.NewRequest(http.MethodGet, "/payload", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "br" {
		t.Fatalf("Content-Encoding = %q, want br", got)
	}

	decoded, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if string(decoded) != head+tail {
		t.Fatalf("decoded %d bytes, want %d; tail after brotli stream was not compressed",
			len(decoded), len(head)+len(tail))
	}
}

func TestBrotli_SmallBodyStaysPlain(t *testing.T) {
	body := `{"status":"ok"}`
	r := brotliTestRouter(body)

	req := httptest.NewRequest(http.MethodGet, "/payload", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want none", got)
	}
	if w.Body.String() != body {
		t.Fatalf("body = %q, want %q", w.Body.String(), body)
	}
}

func TestBrotli_NoAcceptHeaderPassesThrough(t *testing.T) {
	body := strings.Repeat("y", 2048)
	r := brotliTestRouter(body)

	req := httptest.NewRequest(http.MethodGet, "/payload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("Content-Encoding = %q, want none", got)
	}
	if w.Body.String() != body {
		t.Fatal("uncompressed passthrough altered the body")
	}
}
