package translate

import (
	"testing"

	"github.com/kestrel-editor/lsp/internal/lspproto"
)

func TestDiagnosticFromLSPDefaultsSeverityToError(t *testing.T) {
	d := DiagnosticFromLSP(lspproto.Diagnostic{Message: "oops"})
	if d.Severity != SeverityError {
		t.Fatalf("expected default severity Error, got %v", d.Severity)
	}
}

func TestDiagnosticFromLSPCarriesStringCode(t *testing.T) {
	code := lspproto.NumberOrString{Str: "E0001", IsStr: true}
	d := DiagnosticFromLSP(lspproto.Diagnostic{Message: "bad", Code: &code})
	if !d.Code.Valid || !d.Code.IsStr || d.Code.Str != "E0001" {
		t.Fatalf("expected string code E0001, got %+v", d.Code)
	}
}

func TestDiagnosticFromLSPConvertsTags(t *testing.T) {
	d := DiagnosticFromLSP(lspproto.Diagnostic{
		Message: "unused",
		Tags:    []lspproto.DiagnosticTag{lspproto.DiagnosticTagUnnecessary},
	})
	if len(d.Tags) != 1 || d.Tags[0] != TagUnnecessary {
		t.Fatalf("expected one Unnecessary tag, got %+v", d.Tags)
	}
}
