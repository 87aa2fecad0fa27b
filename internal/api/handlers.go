package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/corpus"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/stats"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

type handler struct {
	Deps
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

func readUpload(c *gin.Context) (*multipart.FileHeader, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return nil, nil, false
	}
	return fh, data, true
}

func (h *handler) workbench() *project.Workbench {
	if h.PreferenceTokens && h.Preferences != nil {
		return h.Workbench.WithTokens(h.Preferences.ActiveTokens())
	}
	return h.Workbench
}

// listProjects GET /api/projects?sort=date|name&order=asc|desc
func (h *handler) listProjects(c *gin.Context) {
	key, err := project.ParseSortKey(c.DefaultQuery("sort", string(project.SortByDate)))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid order %q", order))
		return
	}

	projects, err := h.Repo.Projects(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	project.Sort(projects, key, order == "desc")

	out := make([]stats.ProjectStats, 0, len(projects))
	for _, p := range projects {
		out = append(out, stats.ForProject(p))
	}
	respond(c, http.StatusOK, out)
}

// createProject POST /api/projects（multipart：file, name, sourceLang, targetLang）
func (h *handler) createProject(c *gin.Context) {
	fh, data, ok := readUpload(c)
	if !ok {
		return
	}
	src := c.DefaultPostForm("sourceLang", h.SourceLang)
	tgt := c.DefaultPostForm("targetLang", h.TargetLang)
	if src == "" || tgt == "" {
		fail(c, http.StatusBadRequest, errors.New("sourceLang and targetLang are required"))
		return
	}

	ctx := c.Request.Context()
	p, err := h.workbench().ImportFile(ctx, fh.Filename, data, src, tgt)
	if err != nil {
		failErr(c, err)
		return
	}
	if name := c.PostForm("name"); name != "" {
		p.TranslationData.Name = name
	}
	if err := h.Repo.SaveProject(ctx, p); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// importXLIFF POST /api/projects/xliff
func (h *handler) importXLIFF(c *gin.Context) {
	_, data, ok := readUpload(c)
	if !ok {
		return
	}
	p, err := corpus.ParseXLIFF(data)
	if err != nil {
		failErr(c, err)
		return
	}
	p.TranslationData.CreationDate = time.Now().UnixMilli()
	if err := h.Repo.SaveProject(c.Request.Context(), p); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (h *handler) loadProject(c *gin.Context) (*project.Project, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	p, err := h.Repo.Project(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	return p, true
}

// getProject GET /api/projects/:id
func (h *handler) getProject(c *gin.Context) {
	p, ok := h.loadProject(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, p)
}

// deleteProject DELETE /api/projects/:id
func (h *handler) deleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Repo.DeleteProject(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	if h.Hub != nil {
		h.Hub.Broadcast(Event{Type: EventProjectDeleted, ProjectID: id})
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}

type segmentUpdate struct {
	Target  *string `json:"target"`
	Checked *bool   `json:"checked"`

	// MemoryID 确认后写入的翻译记忆
	MemoryID int64 `json:"memoryId"`
}

// updateSegment PUT /api/projects/:id/segments/:index
func (h *handler) updateSegment(c *gin.Context) {
	p, ok := h.loadProject(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid index %q", c.Param("index")))
		return
	}
	var req segmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Target == nil && req.Checked == nil {
		fail(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if req.Target != nil {
		if err := p.SetTarget(index, *req.Target); err != nil {
			failErr(c, err)
			return
		}
	}
	if req.Checked != nil {
		if err := p.SetChecked(index, *req.Checked); err != nil {
			failErr(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.Repo.SaveProject(ctx, p); err != nil {
		failErr(c, err)
		return
	}

	d := &p.TranslationData
	if req.MemoryID > 0 && d.Checked[index] {
		m, err := h.Repo.Memory(ctx, req.MemoryID)
		if err != nil {
			failErr(c, err)
			return
		}
		if err := h.Workbench.Remember(p, index, m); err != nil {
			failErr(c, err)
			return
		}
		if err := h.Repo.SaveMemory(ctx, m); err != nil {
			failErr(c, err)
			return
		}
	}

	event := Event{
		Type:      EventSegmentUpdated,
		ProjectID: p.ID,
		Index:     index,
		Target:    d.Seg2[index],
		Checked:   d.Checked[index],
	}
	if h.Hub != nil {
		h.Hub.Broadcast(event)
	}
	respond(c, http.StatusOK, event)
}

// exportProject GET /api/projects/:id/export
func (h *handler) exportProject(c *gin.Context) {
	p, ok := h.loadProject(c)
	if !ok {
		return
	}
	data, name, err := h.Workbench.ExportFile(c.Request.Context(), p)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// exportXLIFF GET /api/projects/:id/xliff?version=1.2|2.0
func (h *handler) exportXLIFF(c *gin.Context) {
	p, ok := h.loadProject(c)
	if !ok {
		return
	}

	var (
		data []byte
		err  error
	)
	switch version := c.DefaultQuery("version", "2.0"); version {
	case "2.0", "2":
		data, err = corpus.EncodeXLIFF20(p)
	case "1.2":
		data, err = corpus.EncodeXLIFF12(p)
	default:
		fail(c, http.StatusBadRequest, fmt.Errorf("unsupported xliff version %q", version))
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.TranslationData.Name+".xlf"))
	c.Data(http.StatusOK, "application/xliff+xml", data)
}

// listMemories GET /api/tm
func (h *handler) listMemories(c *gin.Context) {
	memories, err := h.Repo.Memories(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, memories)
}

// importMemory POST /api/tm（TMX 上传）
func (h *handler) importMemory(c *gin.Context) {
	_, data, ok := readUpload(c)
	if !ok {
		return
	}
	m, err := corpus.ParseTMX(data)
	if err != nil {
		failErr(c, err)
		return
	}
	m.ID = 0
	if name := c.PostForm("name"); name != "" {
		m.Name = name
	}
	if err := h.Repo.SaveMemory(c.Request.Context(), m); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": m.ID, "name": m.Name, "entries": len(m.Entries)})
}

type matchRequest struct {
	ProjectID int64   `json:"projectId" binding:"required"`
	Index     int     `json:"index"`
	IDs       []int64 `json:"ids"` // 为空时使用全部
}

// matchMemory POST /api/tm/match
func (h *handler) matchMemory(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	p, err := h.Repo.Project(ctx, req.ProjectID)
	if err != nil {
		failErr(c, err)
		return
	}
	memories, err := h.Repo.Memories(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	memories = selectByID(memories, req.IDs, func(m *tm.Memory) int64 { return m.ID })

	matches, err := h.Workbench.TMSuggestions(p, req.Index, memories)
	if err != nil {
		failErr(c, err)
		return
	}
	if matches == nil {
		matches = []tm.Match{}
	}
	respond(c, http.StatusOK, matches)
}

// concordance GET /api/tm/concordance?q=term&lang=en
func (h *handler) concordance(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail(c, http.StatusBadRequest, errors.New("missing query"))
		return
	}
	memories, err := h.Repo.Memories(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	hits := []tm.Hit{}
	for _, m := range memories {
		lang := c.DefaultQuery("lang", m.SourceLang)
		hits = append(hits, tm.Concordance(m.Entries, q, lang)...)
	}
	respond(c, http.StatusOK, hits)
}

// listTermBases GET /api/tb
func (h *handler) listTermBases(c *gin.Context) {
	bases, err := h.Repo.TermBases(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, bases)
}

// importTermBase POST /api/tb（TBX 上传）
func (h *handler) importTermBase(c *gin.Context) {
	_, data, ok := readUpload(c)
	if !ok {
		return
	}
	b, err := corpus.ParseTBX(data)
	if err != nil {
		failErr(c, err)
		return
	}
	b.ID = 0
	if name := c.PostForm("name"); name != "" {
		b.Name = name
	}
	if err := h.Repo.SaveTermBase(c.Request.Context(), b); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": b.ID, "name": b.Name, "entries": len(b.Entries)})
}

// matchTermBase POST /api/tb/match
func (h *handler) matchTermBase(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	p, err := h.Repo.Project(ctx, req.ProjectID)
	if err != nil {
		failErr(c, err)
		return
	}
	bases, err := h.Repo.TermBases(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	bases = selectByID(bases, req.IDs, func(b *termbase.Base) int64 { return b.ID })

	matches, err := h.Workbench.TermSuggestions(p, req.Index, bases)
	if err != nil {
		failErr(c, err)
		return
	}
	if matches == nil {
		matches = []termbase.Match{}
	}
	respond(c, http.StatusOK, matches)
}

func selectByID[T any](items []T, ids []int64, id func(T) int64) []T {
	if len(ids) == 0 {
		return items
	}
	want := make(map[int64]bool, len(ids))
	for _, i := range ids {
		want[i] = true
	}
	var out []T
	for _, item := range items {
		if want[id(item)] {
			out = append(out, item)
		}
	}
	return out
}

// stats GET /api/stats
func (h *handler) stats(c *gin.Context) {
	projects, err := h.Repo.Projects(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	perProject := make([]stats.ProjectStats, 0, len(projects))
	for _, p := range projects {
		perProject = append(perProject, stats.ForProject(p))
	}
	respond(c, http.StatusOK, gin.H{
		"summary":  stats.Progress(projects),
		"projects": perProject,
	})
}

// listPreferences GET /api/preferences
func (h *handler) listPreferences(c *gin.Context) {
	prefs, err := h.Preferences.List()
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}

type preferenceRequest struct {
	Label  string   `json:"label"`
	Tokens []string `json:"tokens" binding:"required"`
}

// addPreference POST /api/preferences
func (h *handler) addPreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	p, err := h.Preferences.Add(req.Label, req.Tokens)
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// activatePreference PUT /api/preferences/:pid/active
func (h *handler) activatePreference(c *gin.Context) {
	if err := h.Preferences.SetActive(c.Param("pid")); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, h.Preferences.Active())
}

// deletePreference DELETE /api/preferences/:pid
func (h *handler) deletePreference(c *gin.Context) {
	if err := h.Preferences.Delete(c.Param("pid")); err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("pid")})
}

// watchProject GET /ws/projects/:id
func (h *handler) watchProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, id); err != nil {
		h.Logger.Warn("websocket upgrade failed", zap.Int64("project_id", id), zap.Error(err))
	}
}
