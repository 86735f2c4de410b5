package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status classifies the result of decoding one line.
type Status int

const (
	// StatusDecoded means the line held a valid, recognized message.
	StatusDecoded Status = iota

	// StatusMissingDiscriminant means valid JSON with no "type" field.
	StatusMissingDiscriminant

	// StatusUnrecognizedKind means the "type" tag is outside the known set.
	// Non-fatal by design: a newer script SDK may speak kinds this host
	// build does not know yet.
	StatusUnrecognizedKind

	// StatusInvalidPayload means the kind is recognized but required fields
	// are missing or mistyped.
	StatusInvalidPayload

	// StatusMalformed means the line is not valid JSON at all.
	StatusMalformed

	// StatusTooLong means the line exceeded the ceiling before any parsing.
	StatusTooLong
)

func (s Status) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusMissingDiscriminant:
		return "missing-discriminant"
	case StatusUnrecognizedKind:
		return "unrecognized-kind"
	case StatusInvalidPayload:
		return "invalid-payload"
	case StatusMalformed:
		return "malformed"
	case StatusTooLong:
		return "too-long"
	default:
		return "unknown"
	}
}

// Issue is the diagnostic record attached to every non-decoded outcome.
// Preview is a bounded excerpt of the raw line; the full line is never
// retained, logged, or echoed, since payloads may carry sensitive data.
type Issue struct {
	CorrelationID string
	Status        Status
	Kind          Kind   // set for unrecognized-kind and invalid-payload
	Err           string // optional human-readable error
	Preview       string
	ByteLen       int
}

// Outcome is the result of decoding one line. Msg is set only when Status
// is StatusDecoded; Issue is set for every other status.
type Outcome struct {
	Status Status
	Msg    Message
	Issue  *Issue
}

const (
	// DefaultMaxLineBytes is the line-length ceiling enforced before any
	// structural parsing.
	DefaultMaxLineBytes = 64 * 1024

	// previewBudget bounds the raw-line excerpt kept on an Issue.
	previewBudget = 160
)

// Codec decodes protocol lines and reports classified outcomes.
// The zero value uses DefaultMaxLineBytes.
type Codec struct {
	// MaxLineBytes overrides the line-length ceiling when positive.
	MaxLineBytes int
}

func (c *Codec) max() int {
	if c != nil && c.MaxLineBytes > 0 {
		return c.MaxLineBytes
	}
	return DefaultMaxLineBytes
}

// Decode classifies one line. The line must not contain embedded newlines;
// a single trailing newline (or CRLF) is tolerated and ignored.
func (c *Codec) Decode(line []byte) Outcome {
	line = bytes.TrimRight(line, "\r\n")

	if len(line) > c.max() {
		return c.Oversized(line, len(line))
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(line, &generic); err != nil {
		return issue(StatusMalformed, "", err.Error(), line, len(line))
	}

	rawTag, present := generic["type"]
	if !present {
		return issue(StatusMissingDiscriminant, "", "", line, len(line))
	}

	var tag Kind
	if err := json.Unmarshal(rawTag, &tag); err != nil {
		// The failure implicates the tag value itself (not a string), so
		// this classifies with the schema-level cases, not the payload ones.
		return issue(StatusUnrecognizedKind, Kind(bytes.Trim(rawTag, `"`)), err.Error(), line, len(line))
	}

	spec, known := kinds[tag]
	if !known {
		return issue(StatusUnrecognizedKind, tag, "", line, len(line))
	}

	msg, err := spec.decode(line)
	if err != nil {
		return issue(StatusInvalidPayload, tag, err.Error(), line, len(line))
	}
	return Outcome{Status: StatusDecoded, Msg: msg}
}

// Oversized builds the TooLong outcome for a line whose true length is
// byteLen. head may be just the line's leading bytes; session readers drain
// oversized lines without buffering them and hand only the head here.
func (c *Codec) Oversized(head []byte, byteLen int) Outcome {
	return issue(StatusTooLong, "", fmt.Sprintf("line exceeds %d byte ceiling", c.max()), head, byteLen)
}

func issue(status Status, kind Kind, errText string, raw []byte, byteLen int) Outcome {
	return Outcome{
		Status: status,
		Issue: &Issue{
			CorrelationID: uuid.NewString(),
			Status:        status,
			Kind:          kind,
			Err:           errText,
			Preview:       preview(raw),
			ByteLen:       byteLen,
		},
	}
}

// preview bounds raw to the preview budget, backing up to a rune boundary so
// a split multibyte character never leaks mangled bytes into logs.
func preview(raw []byte) string {
	if len(raw) <= previewBudget {
		return string(raw)
	}
	cut := previewBudget
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return string(raw[:cut])
}

// Encode serializes a message to one wire line (without the trailing
// newline). A failure here is a programmer error: either the value is not
// marshalable or its wire tag was left unset or mismatched.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.MessageKind(), err)
	}
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Type != m.MessageKind() {
		return nil, fmt.Errorf("encoding %s: wire tag %q does not match variant", m.MessageKind(), probe.Type)
	}
	return data, nil
}
