// Package protocol defines the wire protocol spoken between the host and
// running scripts: the message vocabulary, the kind registry, and the
// newline-delimited JSON line codec.
//
// Every message is one JSON object per line carrying a string "type"
// discriminant. Prompt-scoped messages correlate on "id" for the lifetime of
// one prompt surface; request-scoped messages correlate on "request_id" for
// one query/response exchange.
package protocol

import "errors"

// Kind is the wire discriminant identifying a message variant.
type Kind string

// Prompt-scoped kinds. These open, update, or resolve an interactive prompt
// surface and correlate on the "id" field.
const (
	KindArg            Kind = "arg"
	KindSelect         Kind = "select"
	KindDiv            Kind = "div"
	KindEditor         Kind = "editor"
	KindForm           Kind = "form"
	KindChat           Kind = "chat"
	KindSetChoices     Kind = "set-choices"
	KindSetHint        Kind = "set-hint"
	KindSubmit         Kind = "submit"
	KindPromptResponse Kind = "prompt-response"
)

// Request-scoped kinds. One-shot queries and their responses, correlated on
// the "request_id" field.
const (
	KindFileSearch          Kind = "file-search"
	KindFileSearchResult    Kind = "file-search-result"
	KindWindowBounds        Kind = "window-bounds"
	KindWindowBoundsResult  Kind = "window-bounds-result"
	KindGetState            Kind = "get-state"
	KindStateResult         Kind = "state-result"
	KindScriptletList       Kind = "scriptlet-list"
	KindScriptletListResult Kind = "scriptlet-list-result"
	KindAIModels            Kind = "ai-models"
	KindAIModelsResult      Kind = "ai-models-result"
	KindSecretGet           Kind = "secret-get"
	KindSecretResult        Kind = "secret-result"
	KindRequestError        Kind = "request-error"
)

// Kinds carrying an optional prompt id: the field is populated only when the
// message is scoped to a live prompt.
const (
	KindClipboardCopy  Kind = "clipboard-copy"
	KindClipboardPaste Kind = "clipboard-paste"
	KindAIError        Kind = "ai-error"
)

// Fire-and-forget control kinds. No identifier, no response.
const (
	KindHide      Kind = "hide"
	KindShow      Kind = "show"
	KindBeep      Kind = "beep"
	KindNotify    Kind = "notify"
	KindLog       Kind = "log"
	KindExit      Kind = "exit"
	KindRunScript Kind = "run"
)

// IDRole declares which identifier a message kind correlates on.
type IDRole int

const (
	// RoleNone means the kind carries no correlation identifier.
	RoleNone IDRole = iota

	// RolePrompt means the kind correlates on the prompt "id" field.
	RolePrompt

	// RoleRequest means the kind correlates on the "request_id" field.
	RoleRequest

	// RoleOptionalPrompt means the kind carries a prompt "id" only when it
	// is scoped to a live prompt.
	RoleOptionalPrompt
)

func (r IDRole) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RolePrompt:
		return "prompt"
	case RoleRequest:
		return "request"
	case RoleOptionalPrompt:
		return "optional-prompt"
	default:
		return "unknown"
	}
}

// Message is one decoded wire message. The concrete type is always one of
// the variant structs in this package; the set is closed by the registry.
type Message interface {
	MessageKind() Kind
}

// PromptScoped is implemented by variants correlating on a prompt id.
// An empty id on an optional-id variant means "not prompt-scoped".
type PromptScoped interface {
	Message
	PromptID() string
}

// RequestScoped is implemented by variants correlating on a request id.
type RequestScoped interface {
	Message
	ReqID() string
}

var (
	errMissingID        = errors.New("missing required field: id")
	errMissingRequestID = errors.New("missing required field: request_id")
)

// Choice is one selectable entry in an arg or select prompt.
type Choice struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Img         string `json:"img,omitempty"`
}

// ChatEntry is one message in a chat prompt transcript.
type ChatEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Scriptlet describes one runnable script known to the host.
type Scriptlet struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// AIModel describes one model available through the host's AI config.
type AIModel struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// --- Prompt-scoped variants ---

// ArgPrompt opens a single-input argument prompt.
type ArgPrompt struct {
	Type        Kind     `json:"type"`
	ID          string   `json:"id"`
	Placeholder string   `json:"placeholder,omitempty"`
	Hint        string   `json:"hint,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
	Strict      bool     `json:"strict,omitempty"`
}

func (ArgPrompt) MessageKind() Kind  { return KindArg }
func (m ArgPrompt) PromptID() string { return m.ID }
func (m ArgPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// SelectPrompt opens a list-selection prompt.
type SelectPrompt struct {
	Type        Kind     `json:"type"`
	ID          string   `json:"id"`
	Placeholder string   `json:"placeholder,omitempty"`
	Choices     []Choice `json:"choices"`
	Multi       bool     `json:"multi,omitempty"`
}

func (SelectPrompt) MessageKind() Kind  { return KindSelect }
func (m SelectPrompt) PromptID() string { return m.ID }
func (m SelectPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	if len(m.Choices) == 0 {
		return errors.New("missing required field: choices")
	}
	return nil
}

// DivPrompt opens an HTML panel.
type DivPrompt struct {
	Type           Kind   `json:"type"`
	ID             string `json:"id"`
	HTML           string `json:"html"`
	ContainerClass string `json:"container_class,omitempty"`
}

func (DivPrompt) MessageKind() Kind  { return KindDiv }
func (m DivPrompt) PromptID() string { return m.ID }
func (m DivPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	if m.HTML == "" {
		return errors.New("missing required field: html")
	}
	return nil
}

// EditorPrompt opens a text editor surface.
type EditorPrompt struct {
	Type     Kind   `json:"type"`
	ID       string `json:"id"`
	Value    string `json:"value,omitempty"`
	Language string `json:"language,omitempty"`
}

func (EditorPrompt) MessageKind() Kind  { return KindEditor }
func (m EditorPrompt) PromptID() string { return m.ID }
func (m EditorPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// FormPrompt opens an HTML form.
type FormPrompt struct {
	Type   Kind              `json:"type"`
	ID     string            `json:"id"`
	HTML   string            `json:"html"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (FormPrompt) MessageKind() Kind  { return KindForm }
func (m FormPrompt) PromptID() string { return m.ID }
func (m FormPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	if m.HTML == "" {
		return errors.New("missing required field: html")
	}
	return nil
}

// ChatPrompt opens a chat surface seeded with a transcript.
type ChatPrompt struct {
	Type     Kind        `json:"type"`
	ID       string      `json:"id"`
	Messages []ChatEntry `json:"messages,omitempty"`
}

func (ChatPrompt) MessageKind() Kind  { return KindChat }
func (m ChatPrompt) PromptID() string { return m.ID }
func (m ChatPrompt) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// SetChoices replaces the choice list of an open prompt.
type SetChoices struct {
	Type    Kind     `json:"type"`
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

func (SetChoices) MessageKind() Kind  { return KindSetChoices }
func (m SetChoices) PromptID() string { return m.ID }
func (m SetChoices) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// SetHint updates the hint text of an open prompt.
type SetHint struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
	Hint string `json:"hint"`
}

func (SetHint) MessageKind() Kind  { return KindSetHint }
func (m SetHint) PromptID() string { return m.ID }
func (m SetHint) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// Submit forces an open prompt to submit, optionally with a value.
type Submit struct {
	Type  Kind    `json:"type"`
	ID    string  `json:"id"`
	Value *string `json:"value,omitempty"`
}

func (Submit) MessageKind() Kind  { return KindSubmit }
func (m Submit) PromptID() string { return m.ID }
func (m Submit) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// PromptResponse carries the user's resolved value for a prompt back to the
// script.
type PromptResponse struct {
	Type  Kind    `json:"type"`
	ID    string  `json:"id"`
	Value *string `json:"value,omitempty"`
}

func (PromptResponse) MessageKind() Kind  { return KindPromptResponse }
func (m PromptResponse) PromptID() string { return m.ID }
func (m PromptResponse) validate() error {
	if m.ID == "" {
		return errMissingID
	}
	return nil
}

// --- Request-scoped variants ---

// FileSearch asks the host to search the configured roots for files.
type FileSearch struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
	Root      string `json:"root,omitempty"`
}

func (FileSearch) MessageKind() Kind { return KindFileSearch }
func (m FileSearch) ReqID() string   { return m.RequestID }
func (m FileSearch) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	if m.Query == "" {
		return errors.New("missing required field: query")
	}
	return nil
}

// FileSearchResult answers a FileSearch.
type FileSearchResult struct {
	Type      Kind     `json:"type"`
	RequestID string   `json:"request_id"`
	Paths     []string `json:"paths"`
}

func (FileSearchResult) MessageKind() Kind { return KindFileSearchResult }
func (m FileSearchResult) ReqID() string   { return m.RequestID }
func (m FileSearchResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// WindowBoundsQuery asks for the host window's current bounds.
type WindowBoundsQuery struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
}

func (WindowBoundsQuery) MessageKind() Kind { return KindWindowBounds }
func (m WindowBoundsQuery) ReqID() string   { return m.RequestID }
func (m WindowBoundsQuery) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// WindowBoundsResult answers a WindowBoundsQuery.
type WindowBoundsResult struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
	Bounds    Rect   `json:"bounds"`
}

func (WindowBoundsResult) MessageKind() Kind { return KindWindowBoundsResult }
func (m WindowBoundsResult) ReqID() string   { return m.RequestID }
func (m WindowBoundsResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// GetState asks for the host's current engine state.
type GetState struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
}

func (GetState) MessageKind() Kind { return KindGetState }
func (m GetState) ReqID() string   { return m.RequestID }
func (m GetState) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// StateResult answers a GetState.
type StateResult struct {
	Type           Kind   `json:"type"`
	RequestID      string `json:"request_id"`
	SessionCount   int    `json:"session_count"`
	ActivePromptID string `json:"active_prompt_id,omitempty"`
}

func (StateResult) MessageKind() Kind { return KindStateResult }
func (m StateResult) ReqID() string   { return m.RequestID }
func (m StateResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// ScriptletList asks for the catalog of scripts known to the host.
type ScriptletList struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
}

func (ScriptletList) MessageKind() Kind { return KindScriptletList }
func (m ScriptletList) ReqID() string   { return m.RequestID }
func (m ScriptletList) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// ScriptletListResult answers a ScriptletList.
type ScriptletListResult struct {
	Type       Kind        `json:"type"`
	RequestID  string      `json:"request_id"`
	Scriptlets []Scriptlet `json:"scriptlets"`
}

func (ScriptletListResult) MessageKind() Kind { return KindScriptletListResult }
func (m ScriptletListResult) ReqID() string   { return m.RequestID }
func (m ScriptletListResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// AIModelsQuery asks for the models configured on the host.
type AIModelsQuery struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
}

func (AIModelsQuery) MessageKind() Kind { return KindAIModels }
func (m AIModelsQuery) ReqID() string   { return m.RequestID }
func (m AIModelsQuery) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// AIModelsResult answers an AIModelsQuery.
type AIModelsResult struct {
	Type      Kind      `json:"type"`
	RequestID string    `json:"request_id"`
	Models    []AIModel `json:"models"`
}

func (AIModelsResult) MessageKind() Kind { return KindAIModelsResult }
func (m AIModelsResult) ReqID() string   { return m.RequestID }
func (m AIModelsResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// SecretGet asks for a named secret from the host vault.
type SecretGet struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
	Key       string `json:"key"`
}

func (SecretGet) MessageKind() Kind { return KindSecretGet }
func (m SecretGet) ReqID() string   { return m.RequestID }
func (m SecretGet) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	if m.Key == "" {
		return errors.New("missing required field: key")
	}
	return nil
}

// SecretResult answers a SecretGet. A nil value means the key is unknown.
type SecretResult struct {
	Type      Kind    `json:"type"`
	RequestID string  `json:"request_id"`
	Key       string  `json:"key"`
	Value     *string `json:"value,omitempty"`
}

func (SecretResult) MessageKind() Kind { return KindSecretResult }
func (m SecretResult) ReqID() string   { return m.RequestID }
func (m SecretResult) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// RequestError reports a failed request back to its requester.
type RequestError struct {
	Type      Kind   `json:"type"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

func (RequestError) MessageKind() Kind { return KindRequestError }
func (m RequestError) ReqID() string   { return m.RequestID }
func (m RequestError) validate() error {
	if m.RequestID == "" {
		return errMissingRequestID
	}
	return nil
}

// --- Optional prompt-id variants ---

// ClipboardCopy writes text to the system clipboard.
type ClipboardCopy struct {
	Type Kind   `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

func (ClipboardCopy) MessageKind() Kind  { return KindClipboardCopy }
func (m ClipboardCopy) PromptID() string { return m.ID }
func (m ClipboardCopy) validate() error {
	if m.Text == "" {
		return errors.New("missing required field: text")
	}
	return nil
}

// ClipboardPaste asks the host to paste the clipboard into the focused app.
type ClipboardPaste struct {
	Type Kind   `json:"type"`
	ID   string `json:"id,omitempty"`
}

func (ClipboardPaste) MessageKind() Kind  { return KindClipboardPaste }
func (m ClipboardPaste) PromptID() string { return m.ID }

// AIError reports a failure from a script's AI call, optionally scoped to a
// chat prompt.
type AIError struct {
	Type    Kind   `json:"type"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (AIError) MessageKind() Kind  { return KindAIError }
func (m AIError) PromptID() string { return m.ID }
func (m AIError) validate() error {
	if m.Message == "" {
		return errors.New("missing required field: message")
	}
	return nil
}

// --- Control variants ---

// Hide hides the host window.
type Hide struct {
	Type Kind `json:"type"`
}

func (Hide) MessageKind() Kind { return KindHide }

// Show shows the host window.
type Show struct {
	Type Kind `json:"type"`
}

func (Show) MessageKind() Kind { return KindShow }

// Beep plays a notification sound.
type Beep struct {
	Type  Kind   `json:"type"`
	Sound string `json:"sound,omitempty"`
}

func (Beep) MessageKind() Kind { return KindBeep }

// Notify shows a desktop notification.
type Notify struct {
	Type  Kind   `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

func (Notify) MessageKind() Kind { return KindNotify }
func (m Notify) validate() error {
	if m.Title == "" {
		return errors.New("missing required field: title")
	}
	return nil
}

// Log writes a line to the host log on behalf of the script.
type Log struct {
	Type    Kind   `json:"type"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

func (Log) MessageKind() Kind { return KindLog }
func (m Log) validate() error {
	if m.Message == "" {
		return errors.New("missing required field: message")
	}
	return nil
}

// Exit asks the host to end the script's session.
type Exit struct {
	Type Kind `json:"type"`
	Code int  `json:"code,omitempty"`
}

func (Exit) MessageKind() Kind { return KindExit }

// RunScript asks the host to launch another script.
type RunScript struct {
	Type Kind     `json:"type"`
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
}

func (RunScript) MessageKind() Kind { return KindRunScript }
func (m RunScript) validate() error {
	if m.Path == "" {
		return errors.New("missing required field: path")
	}
	return nil
}
