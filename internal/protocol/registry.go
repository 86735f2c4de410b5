package protocol

import (
	"encoding/json"
	"sort"
)

// kindSpec is one row of the schema table: the identifier role a kind
// declares, whether the kind opens a new correlated exchange (a prompt
// surface or an in-flight request), and its typed decoder.
type kindSpec struct {
	role      IDRole
	initiates bool
	decode    func(data []byte) (Message, error)
}

// decodeAs unmarshals a line into a concrete variant and runs its field
// validation. Unknown fields are tolerated for forward compatibility.
func decodeAs[T Message](data []byte) (Message, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if v, ok := any(m).(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// kinds is the schema table: the single source of truth for the recognized
// kind set. Decode, encode checks, and the router all consult it, so the
// three stay in sync by construction.
var kinds = map[Kind]kindSpec{
	KindArg:            {RolePrompt, true, decodeAs[ArgPrompt]},
	KindSelect:         {RolePrompt, true, decodeAs[SelectPrompt]},
	KindDiv:            {RolePrompt, true, decodeAs[DivPrompt]},
	KindEditor:         {RolePrompt, true, decodeAs[EditorPrompt]},
	KindForm:           {RolePrompt, true, decodeAs[FormPrompt]},
	KindChat:           {RolePrompt, true, decodeAs[ChatPrompt]},
	KindSetChoices:     {RolePrompt, false, decodeAs[SetChoices]},
	KindSetHint:        {RolePrompt, false, decodeAs[SetHint]},
	KindSubmit:         {RolePrompt, false, decodeAs[Submit]},
	KindPromptResponse: {RolePrompt, false, decodeAs[PromptResponse]},

	KindFileSearch:          {RoleRequest, true, decodeAs[FileSearch]},
	KindFileSearchResult:    {RoleRequest, false, decodeAs[FileSearchResult]},
	KindWindowBounds:        {RoleRequest, true, decodeAs[WindowBoundsQuery]},
	KindWindowBoundsResult:  {RoleRequest, false, decodeAs[WindowBoundsResult]},
	KindGetState:            {RoleRequest, true, decodeAs[GetState]},
	KindStateResult:         {RoleRequest, false, decodeAs[StateResult]},
	KindScriptletList:       {RoleRequest, true, decodeAs[ScriptletList]},
	KindScriptletListResult: {RoleRequest, false, decodeAs[ScriptletListResult]},
	KindAIModels:            {RoleRequest, true, decodeAs[AIModelsQuery]},
	KindAIModelsResult:      {RoleRequest, false, decodeAs[AIModelsResult]},
	KindSecretGet:           {RoleRequest, true, decodeAs[SecretGet]},
	KindSecretResult:        {RoleRequest, false, decodeAs[SecretResult]},
	KindRequestError:        {RoleRequest, false, decodeAs[RequestError]},

	KindClipboardCopy:  {RoleOptionalPrompt, false, decodeAs[ClipboardCopy]},
	KindClipboardPaste: {RoleOptionalPrompt, false, decodeAs[ClipboardPaste]},
	KindAIError:        {RoleOptionalPrompt, false, decodeAs[AIError]},

	KindHide:      {RoleNone, false, decodeAs[Hide]},
	KindShow:      {RoleNone, false, decodeAs[Show]},
	KindBeep:      {RoleNone, false, decodeAs[Beep]},
	KindNotify:    {RoleNone, false, decodeAs[Notify]},
	KindLog:       {RoleNone, false, decodeAs[Log]},
	KindExit:      {RoleNone, false, decodeAs[Exit]},
	KindRunScript: {RoleNone, false, decodeAs[RunScript]},
}

// Known reports whether k is in the recognized kind set.
func Known(k Kind) bool {
	_, ok := kinds[k]
	return ok
}

// RoleOf returns the identifier role declared for k.
func RoleOf(k Kind) (IDRole, bool) {
	s, ok := kinds[k]
	if !ok {
		return RoleNone, false
	}
	return s.role, true
}

// Initiates reports whether k opens a new correlated exchange: a prompt
// surface (arg, select, ...) or an in-flight request (file-search, ...).
// Updates, responses, and control messages do not.
func Initiates(k Kind) bool {
	s, ok := kinds[k]
	return ok && s.initiates
}

// Kinds returns the full recognized kind set in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CorrelationID extracts the identifier m correlates on, per its declared
// role. ok is false when m carries no identifier, including an optional-id
// variant whose id is unset.
func CorrelationID(m Message) (id string, role IDRole, ok bool) {
	role, known := RoleOf(m.MessageKind())
	if !known {
		return "", RoleNone, false
	}
	switch role {
	case RolePrompt, RoleOptionalPrompt:
		p, isPrompt := m.(PromptScoped)
		if !isPrompt || p.PromptID() == "" {
			return "", role, false
		}
		return p.PromptID(), role, true
	case RoleRequest:
		r, isReq := m.(RequestScoped)
		if !isReq || r.ReqID() == "" {
			return "", role, false
		}
		return r.ReqID(), role, true
	default:
		return "", RoleNone, false
	}
}
