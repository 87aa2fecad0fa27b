// Package preferences 管理分段边界预设，保存在 TOML 文件中
package preferences

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
)

// DefaultID 内置预设的 ID
const DefaultID = "default"

var (
	// ErrNotFound 预设不存在
	ErrNotFound = errors.New("preference not found")

	// ErrDefaultImmutable 内置预设不能修改或删除
	ErrDefaultImmutable = errors.New("default preference cannot be changed")

	// ErrNoTokens 预设至少需要一个非空白的边界标记
	ErrNoTokens = errors.New("preference needs at least one boundary token")
)

// Preference 一组分段边界标记
type Preference struct {
	ID     string   `toml:"id" json:"id"`
	Label  string   `toml:"label" json:"label"`
	Tokens []string `toml:"tokens" json:"tokens"`
	Active bool     `toml:"active" json:"active"`
}

type preferenceFile struct {
	Preferences []Preference `toml:"preference"`
}

// Default 返回内置的按句分段预设
func Default() Preference {
	return Preference{
		ID:     DefaultID,
		Label:  "Default (sentence-based)",
		Tokens: append([]string(nil), segment.DefaultTokens...),
		Active: true,
	}
}

// Normalize 保证内置预设存在且不被改动，没有启用项时启用内置预设
func Normalize(prefs []Preference) []Preference {
	out := make([]Preference, 0, len(prefs)+1)
	found := false
	for _, p := range prefs {
		if p.ID == DefaultID {
			if found {
				continue
			}
			found = true
			d := Default()
			d.Active = p.Active
			p = d
		}
		out = append(out, p)
	}
	if !found {
		d := Default()
		d.Active = false
		out = append([]Preference{d}, out...)
	}

	// 最多一个启用项
	active := -1
	for i := range out {
		if out[i].Active {
			if active >= 0 {
				out[i].Active = false
				continue
			}
			active = i
		}
	}
	if active < 0 {
		for i := range out {
			out[i].Active = out[i].ID == DefaultID
		}
	}
	return out
}

// Store 预设文件，path 为空时只保存在内存中
type Store struct {
	mu     sync.Mutex
	path   string
	mem    []Preference
	logger *zap.Logger
	newID  func() string
}

// NewStore 创建预设存储
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Path 返回预设文件路径
func (s *Store) Path() string {
	return s.path
}

// load 读取预设；文件不存在或损坏时退回内置预设
func (s *Store) load() []Preference {
	if s.path == "" {
		return Normalize(s.mem)
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read preferences file", zap.String("path", s.path), zap.Error(err))
		}
		return Normalize(nil)
	}

	var f preferenceFile
	if err := toml.Unmarshal(content, &f); err != nil {
		s.logger.Warn("failed to parse preferences file, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return Normalize(nil)
	}
	return Normalize(f.Preferences)
}

func (s *Store) save(prefs []Preference) error {
	if s.path == "" {
		s.mem = prefs
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(preferenceFile{Preferences: prefs}); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create preferences directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}
	return nil
}

// List 返回规范化后的预设并回写
func (s *Store) List() ([]Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.load()
	if err := s.save(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Add 添加一个未启用的自定义预设
func (s *Store) Add(label string, tokens []string) (Preference, error) {
	tokens = cleanTokens(tokens)
	if len(tokens) == 0 {
		return Preference{}, ErrNoTokens
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.load()
	p := Preference{
		ID:     s.newID(),
		Label:  strings.TrimSpace(label),
		Tokens: tokens,
	}
	if p.Label == "" {
		p.Label = fmt.Sprintf("Custom %d", len(prefs)+1)
	}

	if err := s.save(Normalize(append(prefs, p))); err != nil {
		return Preference{}, err
	}
	s.logger.Debug("preference added", zap.String("id", p.ID), zap.Strings("tokens", p.Tokens))
	return p, nil
}

// Update 修改标签和边界标记，空标签保留原值，不传标记保留原标记
func (s *Store) Update(id, label string, tokens []string) error {
	if id == DefaultID {
		return ErrDefaultImmutable
	}
	keep := len(tokens) == 0
	tokens = cleanTokens(tokens)
	if !keep && len(tokens) == 0 {
		return ErrNoTokens
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.load()
	i := indexOf(prefs, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if label = strings.TrimSpace(label); label != "" {
		prefs[i].Label = label
	}
	if !keep {
		prefs[i].Tokens = tokens
	}
	return s.save(Normalize(prefs))
}

// Delete 删除自定义预设；删除启用项后内置预设重新启用
func (s *Store) Delete(id string) error {
	if id == DefaultID {
		return ErrDefaultImmutable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.load()
	i := indexOf(prefs, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prefs = append(prefs[:i], prefs[i+1:]...)
	return s.save(Normalize(prefs))
}

// SetActive 启用一个预设，其余全部停用
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.load()
	if indexOf(prefs, id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for i := range prefs {
		prefs[i].Active = prefs[i].ID == id
	}
	return s.save(Normalize(prefs))
}

// Active 返回当前启用的预设
func (s *Store) Active() Preference {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.load() {
		if p.Active {
			return p
		}
	}
	return Default()
}

// ActiveTokens 返回启用预设的边界标记
func (s *Store) ActiveTokens() []string {
	return s.Active().Tokens
}

func indexOf(prefs []Preference, id string) int {
	for i := range prefs {
		if prefs[i].ID == id {
			return i
		}
	}
	return -1
}

// cleanTokens 去掉空白和空标记
func cleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
