package document

import (
	"context"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
)

// Segmenter 把文档切分为翻译段，并把译文写回原节点
type Segmenter struct {
	tokenizer *segment.Tokenizer
	logger    *zap.Logger
}

// NewSegmenter 创建分段器，tokenizer 为 nil 时使用默认边界
func NewSegmenter(tokenizer *segment.Tokenizer, logger *zap.Logger) *Segmenter {
	if tokenizer == nil {
		tokenizer = segment.NewTokenizer(segment.DefaultOptions())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{tokenizer: tokenizer, logger: logger}
}

// Tokenizer 返回使用中的分词器
func (s *Segmenter) Tokenizer() *segment.Tokenizer {
	return s.tokenizer
}

// Segmentation 一次分段的结果
// Seg1 是源文本段，其余字段是写回时需要的不透明句柄
type Segmentation struct {
	Seg1     []string
	tree     Tree
	bindings []segment.Binding
}

// Tree 返回底层文档
func (s *Segmentation) Tree() Tree {
	return s.tree
}

// Bindings 返回段与节点片段的对应关系
func (s *Segmentation) Bindings() []segment.Binding {
	return s.bindings
}

// Open 打开文档并分段
func (s *Segmenter) Open(src Source, opts Options) (*Segmentation, error) {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	tree, err := Open(src, opts)
	if err != nil {
		return nil, err
	}
	return s.Segment(tree), nil
}

// Segment 对每个单元分句并绑定到节点片段
// 没有片段的段被丢弃并记录日志，不会返回错误
func (s *Segmenter) Segment(tree Tree) *Segmentation {
	out := &Segmentation{tree: tree}
	for _, unit := range tree.Units() {
		var segs []segment.Segment
		if unit.Opaque {
			segs = []segment.Segment{{Text: unit.Text, Start: 0, End: unit.Len(), Opaque: true}}
		} else {
			segs = s.tokenizer.Split(unit.Text)
		}

		bindings, dropped := segment.Bind(segs, unit.Ranges)
		for _, d := range dropped {
			s.logger.Warn("segment has no fragments, dropped",
				zap.String("format", string(tree.Format())),
				zap.String("unit", unit.Label),
				zap.String("text", d.Text))
		}
		for _, b := range bindings {
			out.bindings = append(out.bindings, b)
			out.Seg1 = append(out.Seg1, b.Segment.Text)
		}
	}

	s.logger.Debug("document segmented",
		zap.String("format", string(tree.Format())),
		zap.Int("units", len(tree.Units())),
		zap.Int("segments", len(out.Seg1)))
	return out
}

// Reinsert 把译文写回文档
// 先计算所有节点的新文本再统一写入，写入开始后不再响应取消
func (s *Segmenter) Reinsert(ctx context.Context, seg *Segmentation, seg2 []string) error {
	if len(seg2) != len(seg.bindings) {
		s.logger.Warn("translation count does not match segments",
			zap.Int("segments", len(seg.bindings)),
			zap.Int("translations", len(seg2)))
	}

	texts := segment.Redistribute(seg.bindings, seg2)

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, nt := range texts {
		seg.tree.SetNodeText(nt.Node, nt.Text)
	}
	return nil
}
