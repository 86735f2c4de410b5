package router

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureUI records every forwarded message.
type captureUI struct {
	mu       sync.Mutex
	forwards []Forward
}

func (u *captureUI) Forward(f Forward) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.forwards = append(u.forwards, f)
}

func (u *captureUI) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.forwards)
}

// kindHandler claims a fixed kind set and replies with a canned message.
type kindHandler struct {
	kinds map[protocol.Kind]bool
	reply func(msg protocol.Message) protocol.Message
	calls int
}

func (h *kindHandler) Handles(kind protocol.Kind) bool { return h.kinds[kind] }

func (h *kindHandler) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	h.calls++
	if h.reply == nil {
		return nil, nil
	}
	return h.reply(msg), nil
}

func TestRouteLocalFastPath(t *testing.T) {
	ui := &captureUI{}
	rt := New(testLogger(), ui)
	rt.Register(&kindHandler{
		kinds: map[protocol.Kind]bool{protocol.KindFileSearch: true},
		reply: func(msg protocol.Message) protocol.Message {
			q := msg.(protocol.FileSearch)
			return protocol.FileSearchResult{
				Type:      protocol.KindFileSearchResult,
				RequestID: q.RequestID,
				Paths:     []string{"/home/u/report.md"},
			}
		},
	})

	out, err := rt.Route(context.Background(), "s1",
		protocol.FileSearch{Type: protocol.KindFileSearch, RequestID: "r1", Query: "report"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if out.Kind != RoutedLocal {
		t.Fatalf("route kind = %v, want RoutedLocal", out.Kind)
	}
	reply, ok := out.Reply.(protocol.FileSearchResult)
	if !ok || reply.RequestID != "r1" {
		t.Fatalf("reply = %#v, want FileSearchResult r1", out.Reply)
	}
	if ui.count() != 0 {
		t.Error("fast-path message reached the UI forward path")
	}
	if rt.Pending("s1") != 0 {
		t.Error("fast-path entry left pending")
	}
}

func TestRouteForwardsPromptToUI(t *testing.T) {
	ui := &captureUI{}
	rt := New(testLogger(), ui)

	out, err := rt.Route(context.Background(), "s1",
		protocol.ArgPrompt{Type: protocol.KindArg, ID: "p1", Placeholder: "name?"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if out.Kind != RoutedUI {
		t.Fatalf("route kind = %v, want RoutedUI", out.Kind)
	}
	if ui.count() != 1 {
		t.Fatalf("forwards = %d, want 1", ui.count())
	}
	if rt.Pending("s1") != 1 {
		t.Fatalf("pending = %d, want 1", rt.Pending("s1"))
	}

	value := "picked"
	resp := protocol.PromptResponse{Type: protocol.KindPromptResponse, ID: "p1", Value: &value}
	if err := rt.ResolveFromUI("s1", "p1", resp); err != nil {
		t.Fatalf("resolve from UI: %v", err)
	}
	res := <-out.Pending
	if res.Cancelled {
		t.Fatal("resolution unexpectedly cancelled")
	}
	if got := res.Value.(protocol.PromptResponse); got.ID != "p1" || *got.Value != "picked" {
		t.Errorf("resolution = %#v", res.Value)
	}
	if rt.Pending("s1") != 0 {
		t.Error("entry still pending after UI resolution")
	}
}

func TestRouteDuplicateIdentifier(t *testing.T) {
	ui := &captureUI{}
	rt := New(testLogger(), ui)

	prompt := protocol.ArgPrompt{Type: protocol.KindArg, ID: "p1"}
	if _, err := rt.Route(context.Background(), "s1", prompt); err != nil {
		t.Fatalf("first route: %v", err)
	}
	if _, err := rt.Route(context.Background(), "s1", prompt); err == nil {
		t.Fatal("duplicate identifier accepted")
	}
	// The rejected duplicate must not have been forwarded.
	if ui.count() != 1 {
		t.Errorf("forwards = %d, want 1", ui.count())
	}
}

func TestRouteFirstRegisteredWins(t *testing.T) {
	first := &kindHandler{
		kinds: map[protocol.Kind]bool{protocol.KindGetState: true},
		reply: func(msg protocol.Message) protocol.Message {
			q := msg.(protocol.GetState)
			return protocol.StateResult{Type: protocol.KindStateResult, RequestID: q.RequestID, SessionCount: 1}
		},
	}
	second := &kindHandler{kinds: map[protocol.Kind]bool{protocol.KindGetState: true}}

	rt := New(testLogger(), &captureUI{})
	rt.Register(first)
	rt.Register(second)

	out, err := rt.Route(context.Background(), "s1",
		protocol.GetState{Type: protocol.KindGetState, RequestID: "r1"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if out.Kind != RoutedLocal {
		t.Fatalf("route kind = %v, want RoutedLocal", out.Kind)
	}
	if first.calls != 1 || second.calls != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", first.calls, second.calls)
	}
}

func TestRouteControlMessagesExpectNoResponse(t *testing.T) {
	ui := &captureUI{}
	rt := New(testLogger(), ui)

	for _, msg := range []protocol.Message{
		protocol.Hide{Type: protocol.KindHide},
		protocol.SetHint{Type: protocol.KindSetHint, ID: "p1", Hint: "updated"},
		protocol.ClipboardCopy{Type: protocol.KindClipboardCopy, Text: "t"},
	} {
		out, err := rt.Route(context.Background(), "s1", msg)
		if err != nil {
			t.Fatalf("route %s: %v", msg.MessageKind(), err)
		}
		if out.Kind != RoutedNone {
			t.Errorf("%s route kind = %v, want RoutedNone", msg.MessageKind(), out.Kind)
		}
	}
	// All still reach the UI for their visible effects.
	if ui.count() != 3 {
		t.Errorf("forwards = %d, want 3", ui.count())
	}
	if rt.Pending("s1") != 0 {
		t.Error("control messages registered correlation entries")
	}
}

func TestRouteHandlerErrorBecomesRequestError(t *testing.T) {
	rt := New(testLogger(), &captureUI{})
	rt.Register(failingHandler{})

	out, err := rt.Route(context.Background(), "s1",
		protocol.ScriptletList{Type: protocol.KindScriptletList, RequestID: "r9"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	reply, ok := out.Reply.(protocol.RequestError)
	if !ok {
		t.Fatalf("reply = %#v, want RequestError", out.Reply)
	}
	if reply.RequestID != "r9" || reply.Message == "" {
		t.Errorf("reply = %#v", reply)
	}
	if rt.Pending("s1") != 0 {
		t.Error("failed fast path left entry pending")
	}
}

type failingHandler struct{}

func (failingHandler) Handles(kind protocol.Kind) bool { return kind == protocol.KindScriptletList }
func (failingHandler) Handle(context.Context, protocol.Message) (protocol.Message, error) {
	return nil, context.DeadlineExceeded
}

func TestRouteResponseResolvesPendingEntry(t *testing.T) {
	rt := New(testLogger(), &captureUI{})

	out, err := rt.Route(context.Background(), "s1",
		protocol.WindowBoundsQuery{Type: protocol.KindWindowBounds, RequestID: "r1"})
	if err != nil {
		t.Fatalf("route query: %v", err)
	}
	if out.Kind != RoutedUI {
		t.Fatalf("query route kind = %v, want RoutedUI", out.Kind)
	}

	// An inbound response naming the same request id resolves the entry.
	result := protocol.WindowBoundsResult{
		Type: protocol.KindWindowBoundsResult, RequestID: "r1",
		Bounds: protocol.Rect{Width: 800, Height: 600},
	}
	res2, err := rt.Route(context.Background(), "s1", result)
	if err != nil {
		t.Fatalf("route response: %v", err)
	}
	if res2.Kind != RoutedNone {
		t.Fatalf("response route kind = %v, want RoutedNone", res2.Kind)
	}
	res := <-out.Pending
	if res.Cancelled || res.Value == nil {
		t.Fatalf("resolution = %+v", res)
	}
	if got := res.Value.(protocol.WindowBoundsResult); got.Bounds.Width != 800 {
		t.Errorf("resolution value = %#v", got)
	}
}

func TestRouteRequestTimeout(t *testing.T) {
	rt := New(testLogger(), &captureUI{}, WithRequestTimeout(20*time.Millisecond))

	out, err := rt.Route(context.Background(), "s1",
		protocol.ArgPrompt{Type: protocol.KindArg, ID: "p1"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	select {
	case res := <-out.Pending:
		if !res.Cancelled {
			t.Fatalf("resolution = %+v, want cancelled", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}
	if rt.Pending("s1") != 0 {
		t.Error("timed-out entry still pending")
	}
}

func TestCancelSessionResolvesForwardedPrompt(t *testing.T) {
	rt := New(testLogger(), &captureUI{})

	out, err := rt.Route(context.Background(), "s1",
		protocol.ArgPrompt{Type: protocol.KindArg, ID: "p2"})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if n := rt.CancelSession("s1"); n != 1 {
		t.Fatalf("cancelled = %d, want 1", n)
	}
	res := <-out.Pending
	if !res.Cancelled {
		t.Fatal("forwarded prompt not cancelled with its session")
	}
}
