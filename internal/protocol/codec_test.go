package protocol

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func strptr(s string) *string { return &s }

func TestDecodeSubmit(t *testing.T) {
	var c Codec
	out := c.Decode([]byte(`{"type":"submit","id":"p1","value":"hello"}`))
	if out.Status != StatusDecoded {
		t.Fatalf("status = %v, want decoded (issue: %+v)", out.Status, out.Issue)
	}
	sub, ok := out.Msg.(Submit)
	if !ok {
		t.Fatalf("message type = %T, want Submit", out.Msg)
	}
	if sub.ID != "p1" {
		t.Errorf("id = %q, want p1", sub.ID)
	}
	if sub.Value == nil || *sub.Value != "hello" {
		t.Errorf("value = %v, want hello", sub.Value)
	}
}

func TestDecodeUnrecognizedKind(t *testing.T) {
	var c Codec
	out := c.Decode([]byte(`{"type":"frobnicate"}`))
	if out.Status != StatusUnrecognizedKind {
		t.Fatalf("status = %v, want unrecognized-kind", out.Status)
	}
	if out.Issue.Kind != "frobnicate" {
		t.Errorf("issue kind = %q, want frobnicate", out.Issue.Kind)
	}
}

func TestDecodeMissingDiscriminant(t *testing.T) {
	var c Codec
	out := c.Decode([]byte(`{"foo":"bar"}`))
	if out.Status != StatusMissingDiscriminant {
		t.Fatalf("status = %v, want missing-discriminant", out.Status)
	}
}

func TestDecodeMalformed(t *testing.T) {
	var c Codec
	for _, line := range []string{`{"type":"arg"`, `not json at all`, `[1,2,3]`} {
		out := c.Decode([]byte(line))
		if out.Status != StatusMalformed {
			t.Errorf("Decode(%q) status = %v, want malformed", line, out.Status)
		}
	}
}

func TestDecodeTooLong(t *testing.T) {
	c := Codec{MaxLineBytes: 65536}
	line := bytes.Repeat([]byte("x"), 70000)
	out := c.Decode(line)
	if out.Status != StatusTooLong {
		t.Fatalf("status = %v, want too-long", out.Status)
	}
	if out.Issue.ByteLen != 70000 {
		t.Errorf("byte_len = %d, want 70000", out.Issue.ByteLen)
	}
	if len(out.Issue.Preview) > previewBudget {
		t.Errorf("preview length %d exceeds budget %d", len(out.Issue.Preview), previewBudget)
	}
}

// A line of exactly the ceiling decodes normally; one byte over does not,
// even when the content would otherwise be valid JSON.
func TestDecodeCeilingBoundary(t *testing.T) {
	c := Codec{MaxLineBytes: 256}

	pad := func(n int) []byte {
		prefix := `{"type":"set-hint","id":"p1","hint":"`
		suffix := `"}`
		filler := n - len(prefix) - len(suffix)
		return []byte(prefix + strings.Repeat("h", filler) + suffix)
	}

	exact := pad(256)
	if out := c.Decode(exact); out.Status != StatusDecoded {
		t.Fatalf("exact-ceiling line: status = %v, want decoded (issue: %+v)", out.Status, out.Issue)
	}
	over := pad(257)
	out := c.Decode(over)
	if out.Status != StatusTooLong {
		t.Fatalf("over-ceiling line: status = %v, want too-long", out.Status)
	}
	if out.Issue.ByteLen != 257 {
		t.Errorf("byte_len = %d, want 257", out.Issue.ByteLen)
	}
}

// A recognized kind with a missing required field is invalid-payload naming
// that kind; an unrecognized kind stays unrecognized even when its payload
// would also fail typed conversion.
func TestPayloadVersusKindDiscrimination(t *testing.T) {
	var c Codec

	out := c.Decode([]byte(`{"type":"file-search","request_id":"r1"}`))
	if out.Status != StatusInvalidPayload {
		t.Fatalf("status = %v, want invalid-payload", out.Status)
	}
	if out.Issue.Kind != KindFileSearch {
		t.Errorf("issue kind = %q, want %q", out.Issue.Kind, KindFileSearch)
	}
	if out.Issue.Err == "" {
		t.Error("invalid-payload issue should carry the structural error")
	}

	out = c.Decode([]byte(`{"type":"frobnicate","id":12345,"query":false}`))
	if out.Status != StatusUnrecognizedKind {
		t.Fatalf("status = %v, want unrecognized-kind", out.Status)
	}
}

func TestDecodeNonStringTag(t *testing.T) {
	var c Codec
	out := c.Decode([]byte(`{"type":123}`))
	if out.Status != StatusUnrecognizedKind {
		t.Fatalf("status = %v, want unrecognized-kind", out.Status)
	}
	if out.Issue.Err == "" {
		t.Error("issue should carry the tag conversion error")
	}
}

func TestDecodeMistypedField(t *testing.T) {
	var c Codec
	out := c.Decode([]byte(`{"type":"file-search","request_id":"r1","query":42}`))
	if out.Status != StatusInvalidPayload {
		t.Fatalf("status = %v, want invalid-payload", out.Status)
	}
	if out.Issue.Kind != KindFileSearch {
		t.Errorf("issue kind = %q, want %q", out.Issue.Kind, KindFileSearch)
	}
}

func TestRoundTrip(t *testing.T) {
	msgs := []Message{
		ArgPrompt{Type: KindArg, ID: "p1", Placeholder: "Pick one", Choices: []Choice{
			{Name: "First", Value: "1", Description: "the first"},
			{Name: "Second", Value: "2"},
		}},
		SelectPrompt{Type: KindSelect, ID: "p2", Choices: []Choice{{Name: "A", Value: "a"}}, Multi: true},
		DivPrompt{Type: KindDiv, ID: "p3", HTML: "<b>hi</b>"},
		EditorPrompt{Type: KindEditor, ID: "p4", Value: "x := 1", Language: "go"},
		ChatPrompt{Type: KindChat, ID: "p5", Messages: []ChatEntry{{Role: "user", Text: "hey"}}},
		Submit{Type: KindSubmit, ID: "p6", Value: strptr("hello")},
		PromptResponse{Type: KindPromptResponse, ID: "p7", Value: strptr("picked")},
		FileSearch{Type: KindFileSearch, RequestID: "r1", Query: "report"},
		FileSearchResult{Type: KindFileSearchResult, RequestID: "r1", Paths: []string{"/tmp/report.md"}},
		WindowBoundsResult{Type: KindWindowBoundsResult, RequestID: "r2", Bounds: Rect{X: 10, Y: 20, Width: 800, Height: 600}},
		StateResult{Type: KindStateResult, RequestID: "r3", SessionCount: 2, ActivePromptID: "p1"},
		SecretGet{Type: KindSecretGet, RequestID: "r4", Key: "API_KEY"},
		SecretResult{Type: KindSecretResult, RequestID: "r4", Key: "API_KEY", Value: strptr("sk-123")},
		RequestError{Type: KindRequestError, RequestID: "r5", Message: "cancelled"},
		ClipboardCopy{Type: KindClipboardCopy, ID: "p1", Text: "copied"},
		ClipboardCopy{Type: KindClipboardCopy, Text: "not prompt-scoped"},
		AIError{Type: KindAIError, Message: "model unavailable"},
		Notify{Type: KindNotify, Title: "Done", Body: "Build finished"},
		Beep{Type: KindBeep},
		Exit{Type: KindExit, Code: 3},
		RunScript{Type: KindRunScript, Path: "scripts/deploy.js", Args: []string{"--prod"}},
	}

	var c Codec
	for _, msg := range msgs {
		t.Run(string(msg.MessageKind()), func(t *testing.T) {
			data, err := Encode(msg)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if bytes.ContainsRune(data, '\n') {
				t.Fatal("encoded line contains embedded newline")
			}
			out := c.Decode(data)
			if out.Status != StatusDecoded {
				t.Fatalf("decode status = %v (issue: %+v)", out.Status, out.Issue)
			}
			if !reflect.DeepEqual(out.Msg, msg) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", out.Msg, msg)
			}
		})
	}
}

func TestEncodeRejectsUnsetTag(t *testing.T) {
	_, err := Encode(ArgPrompt{ID: "p1"})
	if err == nil {
		t.Fatal("expected error for unset wire tag")
	}
}

func TestIssueCorrelationIDsAreFresh(t *testing.T) {
	var c Codec
	a := c.Decode([]byte(`garbage`))
	b := c.Decode([]byte(`garbage`))
	if a.Issue.CorrelationID == "" || a.Issue.CorrelationID == b.Issue.CorrelationID {
		t.Errorf("correlation ids not fresh: %q vs %q", a.Issue.CorrelationID, b.Issue.CorrelationID)
	}
}

func TestPreviewTruncation(t *testing.T) {
	var c Codec
	long := `{"bad":"` + strings.Repeat("s", 500) + `"`
	out := c.Decode([]byte(long))
	if out.Status != StatusMalformed {
		t.Fatalf("status = %v, want malformed", out.Status)
	}
	if len(out.Issue.Preview) > previewBudget {
		t.Errorf("preview length %d exceeds budget %d", len(out.Issue.Preview), previewBudget)
	}
	if out.Issue.ByteLen != len(long) {
		t.Errorf("byte_len = %d, want %d", out.Issue.ByteLen, len(long))
	}
}

// preview must never split a multibyte character.
func TestPreviewRuneBoundary(t *testing.T) {
	raw := []byte(strings.Repeat("é", 200)) // 2 bytes each; budget falls mid-rune
	p := preview(raw)
	if len(p) > previewBudget {
		t.Fatalf("preview length %d exceeds budget", len(p))
	}
	for _, r := range p {
		if r == '�' {
			t.Fatal("preview contains replacement character")
		}
	}
}

func TestDecodeTrailingNewline(t *testing.T) {
	var c Codec
	for _, suffix := range []string{"\n", "\r\n"} {
		out := c.Decode([]byte(fmt.Sprintf(`{"type":"hide"}%s`, suffix)))
		if out.Status != StatusDecoded {
			t.Errorf("suffix %q: status = %v, want decoded", suffix, out.Status)
		}
	}
}
