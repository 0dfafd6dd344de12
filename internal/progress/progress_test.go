package progress

import "testing"

func TestCreateThenBeginThenEnd(t *testing.T) {
	m := New()
	token := Token{Number: 1}

	m.Create(10, token)
	if !m.IsCreated(10, token) {
		t.Fatal("expected token to be created")
	}
	if m.IsProgressing(10) {
		t.Fatal("a freshly created token has not started")
	}

	m.Begin(10, token, []byte(`{"kind":"begin","title":"indexing"}`))
	if !m.IsProgressing(10) {
		t.Fatal("expected token to be progressing after Begin")
	}
	if _, ok := m.Progress(10, token); !ok {
		t.Fatal("expected a cached payload after Begin")
	}

	state, ok := m.End(10, token)
	if !ok || state != Started {
		t.Fatalf("expected End to report the prior Started state, got state=%v ok=%v", state, ok)
	}
	if m.IsCreated(10, token) {
		t.Fatal("expected token to be gone after End")
	}
}

func TestTokensAreScopedPerClient(t *testing.T) {
	m := New()
	token := Token{Str: "x", IsStr: true}

	m.Create(1, token)
	if m.IsCreated(2, token) {
		t.Fatal("expected a token created for client 1 to be invisible to client 2")
	}
}

func TestEndUnknownTokenReportsFalse(t *testing.T) {
	m := New()
	if _, ok := m.End(1, Token{Number: 99}); ok {
		t.Fatal("expected End on an unknown token to report false")
	}
}
