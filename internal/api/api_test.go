package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/preferences"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/stats"
	"github.com/nerdneilsfield/go-translator-workbench/internal/store"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

const testTMX = `<tmx version="1.4">
  <header creationtool="t" creationtoolversion="1" segtype="sentence" o-tmf="x" adminlang="en" srclang="en" datatype="plaintext"/>
  <body>
    <tu tuid="1"><tuv xml:lang="en"><seg>One.</seg></tuv><tuv xml:lang="es"><seg>Uno.</seg></tuv></tu>
    <tu tuid="2"><tuv xml:lang="en"><seg>Open the door</seg></tuv><tuv xml:lang="es"><seg>Abre la puerta</seg></tuv></tu>
  </body>
</tmx>`

const testTBX = `<tbx style="dca" type="TBX-Core" xml:lang="en">
  <tbxHeader><fileDesc><titleStmt><title>Numbers</title></titleStmt></fileDesc></tbxHeader>
  <text><body>
    <conceptEntry id="c1">
      <langSec xml:lang="en"><termSec><term>two</term></termSec></langSec>
      <langSec xml:lang="es"><termSec><term>dos</term></termSec></langSec>
    </conceptEntry>
  </body></text>
</tbx>`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testEnv struct {
	router *gin.Engine
	repo   *store.Repository
	hub    *Hub
	prefs  *preferences.Store
	wb     *project.Workbench
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	env := &testEnv{
		repo:  store.NewRepository(st),
		hub:   hub,
		prefs: preferences.NewStore("", nil),
		wb:    project.New(project.Options{Tokens: segment.DefaultTokens, Logger: zap.NewNop()}),
	}
	env.router = NewRouter(Deps{
		Workbench:   env.wb,
		Repo:        env.repo,
		Hub:         hub,
		Preferences: env.prefs,
		SourceLang:  "en",
		TargetLang:  "es",
		Logger:      zap.NewNop(),
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func jsonRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, url, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (e *testEnv) createTextProject(t *testing.T) *project.Project {
	t.Helper()
	w, env := e.do(t, uploadRequest(t, "/api/projects", "notes.txt", []byte("One. Two.\n"), nil))
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	return decodeData[*project.Project](t, env)
}

func TestProjectLifecycle(t *testing.T) {
	e := newTestEnv(t)

	p := e.createTextProject(t)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, []string{"One.", "Two."}, p.TranslationData.Seg1)
	assert.Equal(t, "es", p.TranslationData.TargetLang)

	w, env := e.do(t, httptest.NewRequest(http.MethodGet, "/api/projects?sort=name&order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[[]stats.ProjectStats](t, env)
	require.Len(t, list, 1)
	assert.Equal(t, "notes.txt", list[0].Name)
	assert.Equal(t, 2, list[0].Segments)

	w, env = e.do(t, jsonRequest(t, http.MethodPut, "/api/projects/1/segments/0", gin.H{"target": "Uno.", "checked": true}))
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, Event{Type: EventSegmentUpdated, ProjectID: 1, Index: 0, Target: "Uno.", Checked: true},
		decodeData[Event](t, env))

	w, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/1/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Uno. Two.\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes_es.txt")

	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeData[struct {
		Summary stats.Summary `json:"summary"`
	}](t, env).Summary
	assert.Equal(t, 1, summary.Projects)
	assert.Equal(t, 50, summary.AveragePercent)

	w, _ = e.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestProjectErrors(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"segment out of range", jsonRequest(t, http.MethodPut, "/api/projects/1/segments/5", gin.H{"target": "x"}), http.StatusBadRequest},
		{"empty update", jsonRequest(t, http.MethodPut, "/api/projects/1/segments/0", gin.H{}), http.StatusBadRequest},
		{"bad id", httptest.NewRequest(http.MethodGet, "/api/projects/abc", nil), http.StatusBadRequest},
		{"unknown project", httptest.NewRequest(http.MethodGet, "/api/projects/42", nil), http.StatusNotFound},
		{"bad sort", httptest.NewRequest(http.MethodGet, "/api/projects?sort=size", nil), http.StatusBadRequest},
		{"unsupported upload", uploadRequest(t, "/api/projects", "scan.pdf", []byte("%PDF"), nil), http.StatusUnsupportedMediaType},
		{"missing file", jsonRequest(t, http.MethodPost, "/api/projects", nil), http.StatusBadRequest},
		{"bad xliff version", httptest.NewRequest(http.MethodGet, "/api/projects/1/xliff?version=3", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := e.do(t, tt.req)
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestXLIFFExportAndImport(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	w, _ := e.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/1/xliff?version=1.2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `version="1.2"`)

	w, env := e.do(t, uploadRequest(t, "/api/projects/xliff", "notes.xlf", w.Body.Bytes(), nil))
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	p := decodeData[*project.Project](t, env)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "notes.txt", p.TranslationData.Name)
	assert.Equal(t, []string{"One.", "Two."}, p.TranslationData.Seg1)
}

func TestTranslationMemoryRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	w, env := e.do(t, uploadRequest(t, "/api/tm", "numbers.tmx", []byte(testTMX), map[string]string{"name": "Numbers"}))
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/tm", nil))
	require.Equal(t, http.StatusOK, w.Code)
	memories := decodeData[[]*tm.Memory](t, env)
	require.Len(t, memories, 1)
	assert.Equal(t, "Numbers", memories[0].Name)

	w, env = e.do(t, jsonRequest(t, http.MethodPost, "/api/tm/match", gin.H{"projectId": 1, "index": 0}))
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	matches := decodeData[[]tm.Match](t, env)
	require.NotEmpty(t, matches)
	assert.Equal(t, tm.Match{Segment: "One.", Match: "Uno.", Percentage: 100}, matches[0])

	w, env = e.do(t, jsonRequest(t, http.MethodPost, "/api/tm/match", gin.H{"projectId": 1, "index": 0, "ids": []int64{99}}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]tm.Match](t, env))

	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/tm/concordance?q=door", nil))
	require.Equal(t, http.StatusOK, w.Code)
	hits := decodeData[[]tm.Hit](t, env)
	require.Len(t, hits, 1)
	assert.Equal(t, "Open the door", hits[0].Entry.Source.Segment)

	w, _ = e.do(t, uploadRequest(t, "/api/tm", "bad.tmx", []byte("<tmx/>"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmedSegmentIsRemembered(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	m := &tm.Memory{Name: "Project memory", SourceLang: "en"}
	require.NoError(t, e.repo.SaveMemory(context.Background(), m))

	w, env := e.do(t, jsonRequest(t, http.MethodPut, "/api/projects/1/segments/1",
		gin.H{"target": "Dos.", "checked": true, "memoryId": m.ID}))
	require.Equal(t, http.StatusOK, w.Code, env.Error)

	stored, err := e.repo.Memory(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, stored.Entries, 1)
	assert.Equal(t, "Two.", stored.Entries[0].Source.Segment)
	assert.Equal(t, "Dos.", stored.Entries[0].Targets[0].Segment)
}

func TestTermBaseRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	w, env := e.do(t, uploadRequest(t, "/api/tb", "numbers.tbx", []byte(testTBX), nil))
	require.Equal(t, http.StatusCreated, w.Code, env.Error)

	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/tb", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeData[[]*termbase.Base](t, env), 1)

	w, env = e.do(t, jsonRequest(t, http.MethodPost, "/api/tb/match", gin.H{"projectId": 1, "index": 1}))
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.Equal(t, []termbase.Match{{SearchEntry: "two", FoundEntry: "dos"}}, decodeData[[]termbase.Match](t, env))

	w, _ = e.do(t, jsonRequest(t, http.MethodPost, "/api/tb/match", gin.H{"index": 1}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreferenceRoutes(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, jsonRequest(t, http.MethodPost, "/api/preferences", gin.H{"label": "Semicolons", "tokens": []string{";"}}))
	require.Equal(t, http.StatusCreated, w.Code, env.Error)
	pref := decodeData[preferences.Preference](t, env)

	w, env = e.do(t, httptest.NewRequest(http.MethodPut, "/api/preferences/"+pref.ID+"/active", nil))
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	assert.True(t, decodeData[preferences.Preference](t, env).Active)

	w, env = e.do(t, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]preferences.Preference](t, env), 2)

	w, _ = e.do(t, httptest.NewRequest(http.MethodDelete, "/api/preferences/"+preferences.DefaultID, nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = e.do(t, httptest.NewRequest(http.MethodPut, "/api/preferences/nope/active", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = e.do(t, httptest.NewRequest(http.MethodDelete, "/api/preferences/"+pref.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImportUsesActivePreference(t *testing.T) {
	e := newTestEnv(t)
	pref, err := e.prefs.Add("Semicolons", []string{";"})
	require.NoError(t, err)
	require.NoError(t, e.prefs.SetActive(pref.ID))

	router := NewRouter(Deps{
		Workbench:        e.wb,
		Repo:             e.repo,
		Preferences:      e.prefs,
		PreferenceTokens: true,
		SourceLang:       "en",
		TargetLang:       "de",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/projects", "list.txt", []byte("a;b. c"), nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	p := decodeData[*project.Project](t, env)
	assert.Len(t, p.TranslationData.Seg1, 2)
	assert.Equal(t, []string{";"}, p.TranslationData.TypeRef.Tokens)
}

func TestWebSocketReceivesSegmentEdits(t *testing.T) {
	e := newTestEnv(t)
	e.createTextProject(t)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/projects/1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return e.hub.Clients(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	body := strings.NewReader(`{"target":"Dos.","checked":false}`)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/projects/1/segments/1", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, Event{Type: EventSegmentUpdated, ProjectID: 1, Index: 1, Target: "Dos."}, ev)

	conn.Close()
	require.Eventually(t, func() bool { return e.hub.Clients(1) == 0 }, 2*time.Second, 10*time.Millisecond)
}
