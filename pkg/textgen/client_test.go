package textgen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestGenerateSendsConversation(t *testing.T) {
	var captured chatRequest
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer k" {
			t.Fatalf("missing auth header")
		}
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		body := `{"choices":[{"message":{"role":"assistant","content":"  Sales were strong.  "}}]}`
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	})

	client, err := NewClient("http://llm.test/v1/chat/completions",
		WithAPIKey("k"), WithModel("small"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.Generate(context.Background(), "Summarise.", `{"net":"100"}`)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "Sales were strong." {
		t.Fatalf("unexpected output %q", out)
	}
	if captured.Model != "small" || len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected request %+v", captured)
	}
}

func TestGenerateHandlesEmptyChoices(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"choices":[]}`)), Header: http.Header{}}, nil
	})
	client, err := NewClient("http://llm.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), "", "data"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := client.Generate(context.Background(), "", " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected error")
	}
}
