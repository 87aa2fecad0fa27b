package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/container"
	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

// Options 工作台选项
type Options struct {
	Tokens    []string
	Mode      segment.Mode
	Document  document.Options
	Threshold float64
	Logger    *zap.Logger
}

// Workbench 把文档适配器、分段器和匹配器组合成项目级操作
type Workbench struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New 创建工作台
func New(opts Options) *Workbench {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = tm.DefaultThreshold
	}
	if opts.Document.Logger == nil {
		opts.Document.Logger = logger
	}
	opts.Tokens = tokensOrDefault(opts.Tokens)
	return &Workbench{opts: opts, logger: logger, now: time.Now}
}

// WithTokens 返回使用另一组边界标记的工作台
func (w *Workbench) WithTokens(tokens []string) *Workbench {
	c := *w
	c.opts.Tokens = tokensOrDefault(tokens)
	return &c
}

// tokensOrDefault 没有配置边界标记时使用默认标记
// 全是空白的标记仍交给分词器，退回按空白分段
func tokensOrDefault(tokens []string) []string {
	if len(tokens) == 0 {
		return append([]string(nil), segment.DefaultTokens...)
	}
	return tokens
}

// Threshold 翻译记忆的最低相似度
func (w *Workbench) Threshold() float64 {
	return w.opts.Threshold
}

// Import 分段文档并创建新项目
// 没有可翻译文本的文档得到一个空的占位段
func (w *Workbench) Import(ctx context.Context, name, sourceLang, targetLang string, src document.Source) (*Project, error) {
	tokenizer := segment.NewTokenizer(segment.Options{Tokens: w.opts.Tokens, Mode: w.opts.Mode})
	docOpts := w.opts.Document
	seg := document.NewSegmenter(tokenizer, w.logger)

	s, err := seg.Open(src, docOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s document: %w", src.Format, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seg1 := s.Seg1
	if len(seg1) == 0 {
		w.logger.Warn("document has no translatable text, adding placeholder segment",
			zap.String("name", name), zap.String("format", string(src.Format)))
		seg1 = []string{""}
	}

	p := &Project{
		TranslationData: TranslationData{
			Name:         name,
			SourceLang:   sourceLang,
			TargetLang:   targetLang,
			CreationDate: w.now().UnixMilli(),
			Seg1:         seg1,
			Seg2:         make([]string, len(seg1)),
			Checked:      make([]bool, len(seg1)),
			Type:         string(src.Format),
			TypeRef: TypeRef{
				Parts:       src.Parts,
				Tokens:      tokenizer.Tokens(),
				Mode:        tokenizer.Mode().String(),
				IgnoredTags: docOpts.IgnoredTags,
				Attributes:  docOpts.Attributes,
			},
		},
	}

	w.logger.Info("project imported",
		zap.String("name", name),
		zap.String("format", string(src.Format)),
		zap.Int("segments", len(seg1)))
	return p, nil
}

// ImportFile 根据文件名识别格式，办公文档先在内存中解包
func (w *Workbench) ImportFile(ctx context.Context, filename string, data []byte, sourceLang, targetLang string) (*Project, error) {
	format, err := document.FormatForFile(filename)
	if err != nil {
		return nil, err
	}

	src := document.Source{Format: format}
	if document.IsContainer(format) {
		src.Parts, err = container.Unpack(data, func(name string) bool {
			return document.WantsPart(format, name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", filename, err)
		}
	} else {
		src.Parts = map[string]string{document.ContentPart: string(data)}
	}

	p, err := w.Import(ctx, filepath.Base(filename), sourceLang, targetLang, src)
	if err != nil {
		return nil, err
	}
	if document.IsContainer(format) {
		p.TranslationData.TypeRef.Archive = data
	}
	return p, nil
}

// segmenterFor 用项目导入时的参数重建分段器
func (w *Workbench) segmenterFor(p *Project) (*document.Segmenter, document.Options, error) {
	ref := p.TranslationData.TypeRef
	mode, err := segment.ParseMode(ref.Mode)
	if err != nil {
		return nil, document.Options{}, err
	}
	tokenizer := segment.NewTokenizer(segment.Options{Tokens: ref.Tokens, Mode: mode})

	opts := w.opts.Document
	if ref.IgnoredTags != nil {
		opts.IgnoredTags = ref.IgnoredTags
	}
	if ref.Attributes != nil {
		opts.Attributes = ref.Attributes
	}
	return document.NewSegmenter(tokenizer, w.logger), opts, nil
}

// Export 把译文写回原始文档，返回修改后的部件
func (w *Workbench) Export(ctx context.Context, p *Project) (map[string]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seg, opts, err := w.segmenterFor(p)
	if err != nil {
		return nil, err
	}

	src := document.Source{
		Format: document.Format(p.TranslationData.Type),
		Parts:  p.TranslationData.TypeRef.Parts,
	}
	s, err := seg.Open(src, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen %s document: %w", src.Format, err)
	}

	if len(s.Seg1) != p.Len() && !(len(s.Seg1) == 0 && p.Len() == 1) {
		w.logger.Warn("re-segmentation differs from project",
			zap.String("name", p.TranslationData.Name),
			zap.Int("project_segments", p.Len()),
			zap.Int("document_segments", len(s.Seg1)))
	}

	if err := seg.Reinsert(ctx, s, p.Targets()); err != nil {
		return nil, err
	}
	return s.Tree().Parts()
}

// ExportFile 导出为可下载的文件内容和文件名
func (w *Workbench) ExportFile(ctx context.Context, p *Project) ([]byte, string, error) {
	parts, err := w.Export(ctx, p)
	if err != nil {
		return nil, "", err
	}

	format := document.Format(p.TranslationData.Type)
	name := exportName(p.TranslationData.Name, p.TranslationData.TargetLang, format)
	if !document.IsContainer(format) {
		return []byte(parts[document.ContentPart]), name, nil
	}

	archive := p.TranslationData.TypeRef.Archive
	if len(archive) == 0 {
		return nil, "", fmt.Errorf("%w: %s project has no archive", ErrInvalidProject, format)
	}
	data, err := container.Repack(archive, parts)
	if err != nil {
		return nil, "", err
	}
	return data, name, nil
}

// exportName report.docx -> report_fr.docx
func exportName(name, targetLang string, format document.Format) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = "." + string(format)
		if format == document.FormatText {
			ext = ".txt"
		}
	}
	if targetLang != "" {
		base += "_" + targetLang
	}
	return base + ext
}

// TMSuggestions 在所有翻译记忆中查找第 i 段的建议，按相似度排序
func (w *Workbench) TMSuggestions(p *Project, i int, memories []*tm.Memory) ([]tm.Match, error) {
	if err := p.checkIndex(i); err != nil {
		return nil, err
	}
	d := &p.TranslationData
	var out []tm.Match
	for _, m := range memories {
		out = append(out, tm.FindMatches(m.Entries, d.Seg1[i], w.opts.Threshold, d.SourceLang, d.TargetLang)...)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Percentage > out[b].Percentage
	})
	return out, nil
}

// TermSuggestions 在所有术语库中查找第 i 段出现的术语
func (w *Workbench) TermSuggestions(p *Project, i int, bases []*termbase.Base) ([]termbase.Match, error) {
	if err := p.checkIndex(i); err != nil {
		return nil, err
	}
	d := &p.TranslationData
	var out []termbase.Match
	for _, b := range bases {
		out = append(out, termbase.FindMatches(b.Entries, d.Seg1[i], d.SourceLang, d.TargetLang)...)
	}
	return out, nil
}

// Remember 把已确认的段写入翻译记忆
func (w *Workbench) Remember(p *Project, i int, m *tm.Memory) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	d := &p.TranslationData
	if strings.TrimSpace(d.Seg1[i]) == "" || strings.TrimSpace(d.Seg2[i]) == "" {
		return nil
	}
	m.Add(tm.Variant{Lang: d.SourceLang, Segment: d.Seg1[i]}, tm.Variant{Lang: d.TargetLang, Segment: d.Seg2[i]})
	return nil
}
