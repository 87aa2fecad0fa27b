package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

type payload struct {
	Name string `json:"name"`
}

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "workbench.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreCRUD(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	id1, err := s.Put(ctx, KindProjects, 0, payload{Name: "one"})
	require.NoError(t, err)
	id2, err := s.Put(ctx, KindProjects, 0, payload{Name: "two"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	// 每个集合独立编号
	tmID, err := s.Put(ctx, KindTM, 0, payload{Name: "memory"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tmID)

	_, err = s.Put(ctx, KindProjects, id1, payload{Name: "one, renamed"})
	require.NoError(t, err)

	var got payload
	require.NoError(t, s.Get(ctx, KindProjects, id1, &got))
	assert.Equal(t, "one, renamed", got.Name)

	records, err := s.List(ctx, KindProjects)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id1, records[0].ID)
	assert.JSONEq(t, `{"name":"two"}`, string(records[1].Data))

	require.NoError(t, s.Delete(ctx, KindProjects, id2))
	assert.ErrorIs(t, s.Get(ctx, KindProjects, id2, &got), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, KindProjects, id2), ErrNotFound)

	// 删除的 ID 不会被复用
	id3, err := s.Put(ctx, KindProjects, 0, payload{Name: "three"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id3)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.Put(ctx, KindTB, 0, payload{Name: "terms"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, KindTB)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mongo"})
	assert.Error(t, err)
}

func TestRepository(t *testing.T) {
	repo := NewRepository(newSQLite(t))
	ctx := context.Background()

	p := &project.Project{TranslationData: project.TranslationData{
		Name: "demo", SourceLang: "en", TargetLang: "es",
		Seg1: []string{"Hello."}, Seg2: []string{""}, Checked: []bool{false},
		Type: "text",
	}}
	require.NoError(t, repo.SaveProject(ctx, p))
	assert.Equal(t, int64(1), p.ID)

	require.NoError(t, p.SetTarget(0, "Hola."))
	require.NoError(t, repo.SaveProject(ctx, p))

	got, err := repo.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hola."}, got.TranslationData.Seg2)

	bad := &project.Project{TranslationData: project.TranslationData{Name: "bad", Seg1: []string{"x"}}}
	assert.ErrorIs(t, repo.SaveProject(ctx, bad), project.ErrInvalidProject)

	m := &tm.Memory{Name: "mem", SourceLang: "en"}
	m.Add(tm.Variant{Lang: "en", Segment: "Yes"}, tm.Variant{Lang: "es", Segment: "Sí"})
	require.NoError(t, repo.SaveMemory(ctx, m))
	memories, err := repo.Memories(ctx)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, m.ID, memories[0].ID)
	assert.Equal(t, "Sí", memories[0].Entries[0].Targets[0].Segment)

	b := &termbase.Base{Name: "terms", Entries: []termbase.Entry{{ID: "c1", Terms: []termbase.Term{{Lang: "en", Term: "drive"}}}}}
	require.NoError(t, repo.SaveTermBase(ctx, b))
	bases, err := repo.TermBases(ctx)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, "drive", bases[0].Entries[0].Terms[0].Term)

	projects, err := repo.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, repo.DeleteProject(ctx, p.ID))
	_, err = repo.Project(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, repo.DeleteMemory(ctx, m.ID))
	require.NoError(t, repo.DeleteTermBase(ctx, b.ID))
}
