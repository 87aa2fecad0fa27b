package store

import (
	"context"
	"fmt"

	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

// Repository 在 Store 之上提供按类型的读写
type Repository struct {
	store Store
}

// NewRepository 创建仓库
func NewRepository(s Store) *Repository {
	return &Repository{store: s}
}

// Store 返回底层存储
func (r *Repository) Store() Store {
	return r.store
}

// SaveProject 校验并保存项目，新项目会被分配 ID
func (r *Repository) SaveProject(ctx context.Context, p *project.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	id, err := r.store.Put(ctx, KindProjects, p.ID, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Project 读取项目
func (r *Repository) Project(ctx context.Context, id int64) (*project.Project, error) {
	var p project.Project
	if err := r.store.Get(ctx, KindProjects, id, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// Projects 列出所有项目
func (r *Repository) Projects(ctx context.Context) ([]*project.Project, error) {
	records, err := r.store.List(ctx, KindProjects)
	if err != nil {
		return nil, err
	}
	out := make([]*project.Project, 0, len(records))
	for _, rec := range records {
		var p project.Project
		if err := decode(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("project %d: %w", rec.ID, err)
		}
		p.ID = rec.ID
		out = append(out, &p)
	}
	return out, nil
}

// DeleteProject 删除项目
func (r *Repository) DeleteProject(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, KindProjects, id)
}

// SaveMemory 保存翻译记忆
func (r *Repository) SaveMemory(ctx context.Context, m *tm.Memory) error {
	id, err := r.store.Put(ctx, KindTM, m.ID, m)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// Memory 读取翻译记忆
func (r *Repository) Memory(ctx context.Context, id int64) (*tm.Memory, error) {
	var m tm.Memory
	if err := r.store.Get(ctx, KindTM, id, &m); err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// Memories 列出所有翻译记忆
func (r *Repository) Memories(ctx context.Context) ([]*tm.Memory, error) {
	records, err := r.store.List(ctx, KindTM)
	if err != nil {
		return nil, err
	}
	out := make([]*tm.Memory, 0, len(records))
	for _, rec := range records {
		var m tm.Memory
		if err := decode(rec.Data, &m); err != nil {
			return nil, fmt.Errorf("memory %d: %w", rec.ID, err)
		}
		m.ID = rec.ID
		out = append(out, &m)
	}
	return out, nil
}

// DeleteMemory 删除翻译记忆
func (r *Repository) DeleteMemory(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, KindTM, id)
}

// SaveTermBase 保存术语库
func (r *Repository) SaveTermBase(ctx context.Context, b *termbase.Base) error {
	id, err := r.store.Put(ctx, KindTB, b.ID, b)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// TermBase 读取术语库
func (r *Repository) TermBase(ctx context.Context, id int64) (*termbase.Base, error) {
	var b termbase.Base
	if err := r.store.Get(ctx, KindTB, id, &b); err != nil {
		return nil, err
	}
	b.ID = id
	return &b, nil
}

// TermBases 列出所有术语库
func (r *Repository) TermBases(ctx context.Context) ([]*termbase.Base, error) {
	records, err := r.store.List(ctx, KindTB)
	if err != nil {
		return nil, err
	}
	out := make([]*termbase.Base, 0, len(records))
	for _, rec := range records {
		var b termbase.Base
		if err := decode(rec.Data, &b); err != nil {
			return nil, fmt.Errorf("term base %d: %w", rec.ID, err)
		}
		b.ID = rec.ID
		out = append(out, &b)
	}
	return out, nil
}

// DeleteTermBase 删除术语库
func (r *Repository) DeleteTermBase(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, KindTB, id)
}
