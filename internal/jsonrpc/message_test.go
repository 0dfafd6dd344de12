package jsonrpc

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func frame(t *testing.T, body string) []byte {
	t.Helper()
	return []byte("Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body)
}

func TestReadFrameRoundTrip(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`
	data := frame(t, body)
	r := bufio.NewReader(bytes.NewReader(data))

	payload, err := readFrame(r)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(payload) != body {
		t.Fatalf("payload = %q, want %q", payload, body)
	}
}

func TestReadFrameRejectsNonUTF8ContentType(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"foo"}`
	raw := "Content-Length: " + strconv.Itoa(len(body)) + "\r\nContent-Type: application/vscode-jsonrpc; charset=utf-16\r\n\r\n" + body
	r := bufio.NewReader(strings.NewReader(raw))

	if _, err := readFrame(r); err == nil {
		t.Fatal("expected rejection of non-UTF-8 Content-Type")
	}
}

func TestReadFrameMissingContentLength(t *testing.T) {
	raw := "\r\n{}"
	r := bufio.NewReader(strings.NewReader(raw))
	if _, err := readFrame(r); err != ErrMissingContentLength {
		t.Fatalf("err = %v, want ErrMissingContentLength", err)
	}
}

func TestClassifyRequestNotificationResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Kind
	}{
		{"request", `{"jsonrpc":"2.0","id":7,"method":"textDocument/hover","params":{}}`, KindRequest},
		{"notification", `{"jsonrpc":"2.0","method":"initialized","params":{}}`, KindNotification},
		{"response", `{"jsonrpc":"2.0","id":7,"result":{}}`, KindResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := decodeFrame([]byte(tc.body))
			if err != nil {
				t.Fatalf("decodeFrame: %v", err)
			}
			if env.Kind != tc.want {
				t.Fatalf("kind = %v, want %v", env.Kind, tc.want)
			}
		})
	}
}

func TestClassifyStringID(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":"server-3","method":"window/workDoneProgress/create","params":{}}`
	env, err := decodeFrame([]byte(body))
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if env.Kind != KindRequest || !env.IDIsStr || env.IDStr != "server-3" {
		t.Fatalf("got %+v", env)
	}
}

func TestClassifyRejectsFrameWithNeitherIDNorMethod(t *testing.T) {
	cases := []string{`{}`, `{"jsonrpc":"2.0"}`, `{"jsonrpc":"2.0","result":{}}`}
	for _, body := range cases {
		if _, err := decodeFrame([]byte(body)); err == nil {
			t.Fatalf("decodeFrame(%q): expected an error, got none", body)
		}
	}
}

func TestWriteFrameHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Content-Length: ") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "\r\n\r\n{\"a\":1}") {
		t.Fatalf("unexpected body framing: %q", out)
	}
}
