package client

import (
	"errors"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := rpcError("textDocument/hover", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through to the wrapped cause")
	}
}

func TestTimeoutErrorCarriesRequestID(t *testing.T) {
	err := timeoutError("initialize", 42)
	if err.Kind != KindTimeout || err.RequestID != 42 {
		t.Fatalf("expected timeout error for id 42, got %+v", err)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindRpc:          "rpc",
		KindParse:        "parse",
		KindIO:           "io",
		KindTimeout:      "timeout",
		KindStreamClosed: "stream_closed",
		KindUnhandled:    "unhandled",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
