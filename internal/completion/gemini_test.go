package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
}

func geminiTestClient(t *testing.T, timeout time.Duration, handler func(w http.ResponseWriter, r *http.Request, req geminiRequest)) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r, req)
	}))
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient(context.Background(), "g-test", "gemini-test", srv.URL, timeout)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGeminiClient_Complete(t *testing.T) {
	c := geminiTestClient(t, 5*time.Second, func(w http.ResponseWriter, r *http.Request, req geminiRequest) {
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) != 1 || req.SystemInstruction.Parts[0].Text != "Extrae la tabla de cabida" {
			t.Errorf("expected instruction as system instruction, got %+v", req.SystemInstruction)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "fragmento de texto" {
			t.Errorf("expected fragment as user content, got %+v", req.Contents)
		} else if req.Contents[0].Role != "user" {
			t.Errorf("expected user role, got %q", req.Contents[0].Role)
		}
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Cabida: 25 cuerdas"}]},"finishReason":"STOP"}]}`)
	})

	answer, err := c.Complete(context.Background(), "Extrae la tabla de cabida", "fragmento de texto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Cabida: 25 cuerdas" {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests},
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := geminiTestClient(t, 5*time.Second, func(w http.ResponseWriter, _ *http.Request, _ geminiRequest) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := c.Complete(context.Background(), "s", "u")
			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("expected *ServiceError, got %v", err)
			}
			if svcErr.Provider != "gemini" {
				t.Errorf("expected provider gemini, got %q", svcErr.Provider)
			}
			if svcErr.StatusCode != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, svcErr.StatusCode)
			}
		})
	}
}

func TestGeminiClient_Timeout(t *testing.T) {
	c := geminiTestClient(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request, _ geminiRequest) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	start := time.Now()
	_, err := c.Complete(context.Background(), "s", "u")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *ServiceError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected request to stop at the timeout, took %v", elapsed)
	}
}
