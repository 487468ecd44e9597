package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/mindgraph/pkg/client"
	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{Store: store.NewMemory()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.live.close()
		ts.Close()
	})
	return s, ts
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var body graph.ErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("error body %s: %v", data, err)
	}
	return body.Error.Code
}

func TestSeededGraphs(t *testing.T) {
	_, ts := newTestServer(t)
	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	simple, err := c.LoadSimple(ctx)
	if err != nil {
		t.Fatalf("LoadSimple: %v", err)
	}
	if len(simple.Nodes) != 1 || simple.Nodes[0] != SeedRoot {
		t.Errorf("simple seed = %+v, want [%+v]", simple.Nodes, SeedRoot)
	}

	linked, err := c.LoadLinkData(ctx)
	if err != nil {
		t.Fatalf("LoadLinkData: %v", err)
	}
	if len(linked.Nodes) != 0 || len(linked.Links) != 0 {
		t.Errorf("link-data seed = %+v, want empty", linked)
	}
}

func TestSeedWireFormat(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/mindgraph/getLinkDataGraph")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	want := `{"content":{"content":{"nodeDataArray":[],"linkDataArray":[]}}}`
	if got := strings.TrimSpace(string(data)); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	sent := graph.SimpleSnapshot([]mindmap.Node{
		{Key: 1, Text: "Root", Dir: mindmap.Right, Loc: "0 0"},
		{Key: 2, Parent: 1, Text: "Idea A", Name: "Idea A", Dir: mindmap.Left, Loc: "-120 0", Brush: "skyblue"},
	})
	saved, err := c.SaveSimple(ctx, sent)
	if err != nil {
		t.Fatalf("SaveSimple: %v", err)
	}
	if !saved.Equal(sent) {
		t.Errorf("saved = %+v, want %+v", saved, sent)
	}

	loaded, err := c.LoadSimple(ctx)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.SaveSimple(ctx, loaded)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(loaded) {
		t.Errorf("save(load()) = %+v, want %+v", again, loaded)
	}
}

func TestSaveLinkData(t *testing.T) {
	_, ts := newTestServer(t)
	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	sent := mindmap.Snapshot{
		Kind: mindmap.KindLinked,
		Nodes: []mindmap.Node{
			{Key: 1, Text: "api", Group: 3},
			{Key: 2, Text: "ui"},
			{Key: 3, Text: "Backend", IsGroup: true},
		},
		Links: []mindmap.Link{{From: 2, To: 1}},
	}
	got, err := c.SaveLinkData(context.Background(), sent)
	if err != nil {
		t.Fatalf("SaveLinkData: %v", err)
	}
	if !got.Equal(sent) {
		t.Errorf("got %+v, want %+v", got, sent)
	}
}

func TestSaveSimpleRejectsInvalidTrees(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"two roots", `{"content":[{"key":1},{"key":2}]}`, "NO_ROOT"},
		{"missing parent", `{"content":[{"key":1},{"key":2,"parent":9}]}`, "INVALID_GRAPH"},
		{"duplicate key", `{"content":[{"key":1},{"key":1}]}`, "INVALID_GRAPH"},
		{"mixed branch", `{"content":[{"key":1},{"key":2,"parent":1,"dir":"left"},{"key":3,"parent":2,"dir":"right"}]}`, "INVALID_GRAPH"},
		{"missing content", `{}`, "INVALID_FORMAT"},
		{"not json", `nope`, "INVALID_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t)
			resp, data := post(t, ts.URL+"/mindgraph/saveSimpleGraph", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if got := errorCode(t, data); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestDiagram(t *testing.T) {
	_, ts := newTestServer(t)

	resp, data := post(t, ts.URL+"/api/diagram", `{"description":"plan -> build -> ship"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	snap, err := graph.DecodeDiagramResponse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Nodes) != 3 || len(snap.Links) != 2 {
		t.Errorf("diagram = %+v", snap)
	}

	resp, data = post(t, ts.URL+"/api/diagram", `{"description":"abc"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short description status = %d, want 400", resp.StatusCode)
	}
	if got := errorCode(t, data); got != string(mgerrors.ErrCodeInvalidInput) {
		t.Errorf("code = %s", got)
	}
}

func TestDiagramThroughClient(t *testing.T) {
	_, ts := newTestServer(t)
	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := c.GenerateDiagram(context.Background(), "Backend: api, db\nui -> api")
	if err != nil {
		t.Fatalf("GenerateDiagram: %v", err)
	}
	if _, err := mindmap.FromSnapshot(snap); err != nil {
		t.Errorf("generated graph invalid: %v", err)
	}
}

func TestListGraphs(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.store.Put(context.Background(), graph.NewDocument("extra", graph.SimpleSnapshot(nil))); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get(ts.URL + "/mindgraph/graphs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env graph.Envelope[[]string]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Content == nil || len(*env.Content) != 1 || (*env.Content)[0] != "extra" {
		t.Errorf("names = %v", env.Content)
	}
}

func TestRenderUnknownGraph(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/mindgraph/render/nothere.svg")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRenderSeededSimpleGraph(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/mindgraph/render/simple.svg")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("Root")) {
		t.Errorf("unexpected SVG: %.200s", data)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNotFound || errorCode(t, data) != "NOT_FOUND" {
		t.Errorf("status = %d body = %s", resp.StatusCode, data)
	}
}

func TestCORS(t *testing.T) {
	s := New(Options{Store: store.NewMemory(), AllowedOrigins: []string{"http://app.local"}})
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/mindgraph/saveSimpleGraph", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got %q", got)
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := New(Options{Store: store.NewMemory(), MaxBodyBytes: 16})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, _ := post(t, ts.URL+"/mindgraph/saveSimpleGraph", `{"content":[{"key":1,"text":"a long enough body"}]}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestLiveFeed(t *testing.T) {
	s, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/mindgraph/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.live.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	post(t, ts.URL+"/mindgraph/saveSimpleGraph", `{"content":[{"key":1,"text":"Root"}]}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev LiveEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != "saved" || ev.Document == nil || ev.Document.Name != graph.SimpleGraphName || ev.Document.Revision != 1 {
		t.Errorf("event = %+v", ev)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{mgerrors.Invalid("title", "required"), http.StatusBadRequest},
		{&mindmap.NoRootError{}, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{mgerrors.New(mgerrors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestRunShutsDown(t *testing.T) {
	s := New(Options{Store: store.NewMemory()})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
