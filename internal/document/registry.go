package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry 格式适配器注册表
type Registry struct {
	mu         sync.RWMutex
	openers    map[Format]OpenFunc
	extensions map[string]Format
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		openers:    make(map[Format]OpenFunc),
		extensions: make(map[string]Format),
	}
}

// globalRegistry 全局注册表实例
var globalRegistry = NewRegistry()

// Register 注册适配器
func Register(format Format, open OpenFunc) error {
	return globalRegistry.Register(format, open)
}

// RegisterExtension 注册文件扩展名
func RegisterExtension(ext string, format Format) {
	globalRegistry.RegisterExtension(ext, format)
}

// Open 用全局注册表打开文档
func Open(src Source, opts Options) (Tree, error) {
	return globalRegistry.Open(src, opts)
}

// FormatForFile 根据文件名推断格式
func FormatForFile(name string) (Format, error) {
	return globalRegistry.FormatForFile(name)
}

// RegisteredFormats 获取所有已注册的格式
func RegisteredFormats() []Format {
	return globalRegistry.RegisteredFormats()
}

// Register 注册适配器到注册表
func (r *Registry) Register(format Format, open OpenFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.openers[format]; exists {
		return fmt.Errorf("format %s already registered", format)
	}

	r.openers[format] = open
	return nil
}

// RegisterExtension 注册文件扩展名映射
func (r *Registry) RegisterExtension(ext string, format Format) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 标准化扩展名（去除点号，转小写）
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	r.extensions[ext] = format
}

// Open 打开指定格式的文档
func (r *Registry) Open(src Source, opts Options) (Tree, error) {
	r.mu.RLock()
	open, exists := r.openers[src.Format]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no adapter registered for format %q: %w", src.Format, ErrUnsupportedFormat)
	}

	return open(src, opts)
}

// FormatForFile 根据文件扩展名获取格式
func (r *Registry) FormatForFile(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	r.mu.RLock()
	format, exists := r.extensions[ext]
	r.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("no adapter registered for extension %q: %w", ext, ErrUnsupportedFormat)
	}
	return format, nil
}

// RegisteredFormats 获取所有已注册的格式
func (r *Registry) RegisteredFormats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.openers))
	for format := range r.openers {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// mustRegister 注册默认适配器，重复注册是编程错误
func mustRegister(format Format, open OpenFunc) {
	if err := Register(format, open); err != nil {
		panic(err)
	}
}

// init 注册默认适配器和扩展名
func init() {
	mustRegister(FormatDOCX, OpenDocx)
	mustRegister(FormatXLSX, OpenXlsx)
	mustRegister(FormatHTML, OpenHTML)
	mustRegister(FormatText, OpenText)
	mustRegister(FormatJSON, OpenJSON)
	mustRegister(FormatMarkdown, OpenMarkdown)

	// DOCX
	RegisterExtension(".docx", FormatDOCX)

	// XLSX
	RegisterExtension(".xlsx", FormatXLSX)

	// HTML
	RegisterExtension(".html", FormatHTML)
	RegisterExtension(".htm", FormatHTML)
	RegisterExtension(".xhtml", FormatHTML)

	// Text
	RegisterExtension(".txt", FormatText)
	RegisterExtension(".text", FormatText)

	// JSON
	RegisterExtension(".json", FormatJSON)

	// Markdown
	RegisterExtension(".md", FormatMarkdown)
	RegisterExtension(".markdown", FormatMarkdown)
}

// IsContainer 报告格式是否是 zip 打包的办公文档
func IsContainer(format Format) bool {
	return format == FormatDOCX || format == FormatXLSX
}

// WantsPart 报告适配器是否需要容器中的某个部件
func WantsPart(format Format, name string) bool {
	switch format {
	case FormatDOCX:
		return name == DocxDocumentPart
	case FormatXLSX:
		if name == XlsxSharedStringsPart {
			return true
		}
		return strings.HasPrefix(name, xlsxSheetPrefix) && strings.HasSuffix(name, xlsxSheetSuffix)
	default:
		return name == ContentPart
	}
}
