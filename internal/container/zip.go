// Package container 在内存中解包和重新打包 zip 格式的办公文档
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrInvalidEntry 条目路径不安全
var ErrInvalidEntry = errors.New("invalid archive entry")

// Unpack 读取 keep 选中的部件，返回 部件路径 -> 内容
func Unpack(data []byte, keep func(name string) bool) (map[string]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	parts := make(map[string]string)
	for _, file := range zr.File {
		if err := checkName(file.Name); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() || (keep != nil && !keep(file.Name)) {
			continue
		}
		content, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		parts[file.Name] = content
	}
	return parts, nil
}

// Repack 复制原始归档，用 parts 替换同名部件
// 未修改的条目原样拷贝，不重新压缩
func Repack(data []byte, parts map[string]string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	seen := make(map[string]bool, len(parts))

	for _, file := range zr.File {
		content, replaced := parts[file.Name]
		if !replaced {
			if err := zw.Copy(file); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}
		seen[file.Name] = true

		header := &zip.FileHeader{
			Name:     file.Name,
			Method:   file.Method,
			Modified: file.Modified,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	for name := range parts {
		if !seen[name] {
			return nil, fmt.Errorf("part %s not found in archive: %w", name, ErrInvalidEntry)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Bytes(), nil
}

// Build 用给定部件创建新归档，主要用于测试和示例文档
func Build(parts map[string]string, order []string) ([]byte, error) {
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, name := range order {
		content, ok := parts[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func readFile(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// checkName 拒绝绝对路径和 ../ 条目 (ZipSlip)
func checkName(name string) error {
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("%s: %w", name, ErrInvalidEntry)
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s: %w", name, ErrInvalidEntry)
	}
	return nil
}
