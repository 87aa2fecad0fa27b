package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat 格式无法识别或根元素不符合预期
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMissingPart 缺少必需的文档部件
	ErrMissingPart = errors.New("missing document part")
)

// FormatError 文档解析错误
// errors.Is(err, ErrUnsupportedFormat) 对所有 FormatError 成立
type FormatError struct {
	Format Format
	Part   string
	Cause  error
}

func (e *FormatError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("%s: %s: %v", e.Format, e.Part, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Cause)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// Is 让调用方只需检查 ErrUnsupportedFormat
func (e *FormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

func unsupported(format Format, part string, cause error) error {
	if cause == nil {
		cause = ErrUnsupportedFormat
	}
	return &FormatError{Format: format, Part: part, Cause: cause}
}
