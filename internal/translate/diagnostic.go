package translate

import "github.com/kestrel-editor/lsp/internal/lspproto"

// DiagnosticSeverity mirrors lspproto.DiagnosticSeverity for editor-side
// consumers that want a type distinct from the wire package.
type DiagnosticSeverity int

const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// DiagnosticTag mirrors lspproto.DiagnosticTag.
type DiagnosticTag int

const (
	TagUnnecessary DiagnosticTag = iota + 1
	TagDeprecated
)

// Diagnostic is the editor-native shape a PublishDiagnostics payload is
// converted into. relatedInformation is intentionally not carried: this
// direction (server to editor) never emits it, matching the wire
// format's asymmetry noted in the translation layer's contract.
type Diagnostic struct {
	Range    lspproto.Range
	Severity DiagnosticSeverity
	Code     CodeValue
	Source   string
	Message  string
	Tags     []DiagnosticTag
	Data     []byte
}

// CodeValue holds a diagnostic code that may be numeric or a string on
// the wire.
type CodeValue struct {
	Number int
	Str    string
	IsStr  bool
	Valid  bool
}

// DiagnosticFromLSP converts one wire Diagnostic into its editor-native
// form. Range conversion is componentwise and is left in LSP
// coordinates here; callers translate to chars against their own rope
// once they know which document the diagnostic belongs to.
func DiagnosticFromLSP(d lspproto.Diagnostic) Diagnostic {
	out := Diagnostic{
		Range:   d.Range,
		Source:  d.Source,
		Message: d.Message,
		Data:    []byte(d.Data),
	}
	if d.Severity != nil {
		out.Severity = DiagnosticSeverity(*d.Severity)
	} else {
		out.Severity = SeverityError
	}
	if d.Code != nil {
		out.Code = CodeValue{Number: d.Code.Number, Str: d.Code.Str, IsStr: d.Code.IsStr, Valid: true}
	}
	for _, t := range d.Tags {
		out.Tags = append(out.Tags, DiagnosticTag(t))
	}
	return out
}
