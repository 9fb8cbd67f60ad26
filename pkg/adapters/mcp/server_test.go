package mcp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/aretw0/pathquiz/internal/testutils"
	"github.com/aretw0/pathquiz/pkg/adapters/mcp"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResult struct {
	Result struct {
		IsError           bool            `json:"isError"`
		StructuredContent json.RawMessage `json:"structuredContent"`
		Content           []struct {
			Text string `json:"text"`
		} `json:"content"`
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type harness struct {
	t     *testing.T
	srv   *mcp.Server
	sched *testutils.ManualScheduler
	id    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sched := testutils.NewManualScheduler()
	mgr := session.NewManager(testutils.SiteDefinition(t), memory.NewStore(), session.WithScheduler(sched))
	t.Cleanup(mgr.Close)

	h := &harness{t: t, srv: mcp.NewServer(mgr, "test", mcp.WithCatalog(memory.NewSeededCatalog())), sched: sched}
	h.call("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
	return h
}

func (h *harness) call(method string, params any) rpcResult {
	h.t.Helper()
	h.id++
	raw, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": h.id, "method": method, "params": params})
	require.NoError(h.t, err)

	resp := h.srv.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(h.t, err)

	var res rpcResult
	require.NoError(h.t, json.Unmarshal(out, &res), string(out))
	require.Nil(h.t, res.Error, string(out))
	return res
}

func (h *harness) tool(name string, args map[string]any, v any) rpcResult {
	h.t.Helper()
	res := h.call("tools/call", map[string]any{"name": name, "arguments": args})
	if v != nil && !res.Result.IsError {
		require.NoError(h.t, json.Unmarshal(res.Result.StructuredContent, v))
	}
	return res
}

func TestServer_ListTools(t *testing.T) {
	h := newHarness(t)
	res := h.call("tools/list", map[string]any{})

	var names []string
	for _, tool := range res.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"start_quiz", "get_directive", "select_option", "go_back", "restart_quiz", "resolve_result",
	}, names)
}

func TestServer_PlayQuiz(t *testing.T) {
	h := newHarness(t)

	var start struct {
		SessionID    string   `json:"session_id"`
		QuestionText string   `json:"question_text"`
		OptionLabels []string `json:"option_labels"`
	}
	h.tool("start_quiz", map[string]any{}, &start)
	require.NotEmpty(t, start.SessionID)
	assert.Equal(t, "What do you want to achieve?", start.QuestionText)

	var act mcp.ActionResult
	for step, opt := range []int{2, 3, 0} {
		h.tool("select_option", map[string]any{"session_id": start.SessionID, "step_index": step, "option_index": opt}, &act)
		require.True(t, act.Accepted, "step %d", step)
		h.sched.Advance(time.Second)
	}
	assert.True(t, act.Directive.Completed)
	require.NotNil(t, act.Directive.Result)
	assert.Equal(t, 2, act.Directive.Result.Index)

	h.tool("go_back", map[string]any{"session_id": start.SessionID}, &act)
	assert.False(t, act.Accepted)

	h.tool("restart_quiz", map[string]any{"session_id": start.SessionID}, &act)
	assert.True(t, act.Accepted)
	assert.Equal(t, 0, act.Directive.StepIndex)
}

func TestServer_UnknownSessionIsToolError(t *testing.T) {
	h := newHarness(t)
	res := h.tool("get_directive", map[string]any{"session_id": "nope"}, nil)
	assert.True(t, res.Result.IsError)
	require.NotEmpty(t, res.Result.Content)
	assert.Contains(t, res.Result.Content[0].Text, "start_quiz")
}

func TestServer_ResolveResult(t *testing.T) {
	h := newHarness(t)

	var res struct {
		Index   int    `json:"index"`
		Title   string `json:"title"`
		Courses []struct {
			Title string `json:"title"`
		} `json:"courses"`
	}
	h.tool("resolve_result", map[string]any{"answers": []int{1, 0, 3}}, &res)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "Data Science Path", res.Title)
	require.Len(t, res.Courses, 2)
	assert.Equal(t, "Data Science Essentials", res.Courses[0].Title)

	bad := h.tool("resolve_result", map[string]any{"answers": []int{1, 0}}, nil)
	assert.True(t, bad.Result.IsError)
}

func TestServer_DefinitionResource(t *testing.T) {
	h := newHarness(t)
	res := h.call("resources/read", map[string]any{"uri": "pathquiz://definition"})

	require.Len(t, res.Result.Contents, 1)
	var def struct {
		ID    string `json:"id"`
		Steps []any  `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Result.Contents[0].Text), &def))
	assert.Equal(t, "learning-path", def.ID)
	assert.Len(t, def.Steps, 3, fmt.Sprintf("%+v", def))
}

func TestServer_ServeSSE(t *testing.T) {
	h := newHarness(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.srv.ServeSSE(ctx, ln) }()

	reqCtx, reqCancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+ln.Addr().String()+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.Equal(t, "event: endpoint", scanner.Text())
	require.True(t, scanner.Scan())
	assert.Contains(t, scanner.Text(), "/message?sessionId=")

	reqCancel()
	resp.Body.Close()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
