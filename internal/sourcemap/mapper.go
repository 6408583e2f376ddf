package sourcemap

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// FileMapper is the default Mapper. A file entry resolves to a single
// path; a directory entry resolves to every regular file beneath it,
// keyed by slash-separated path relative to the working directory.
func FileMapper(ctx context.Context, entry string) (ir.SourceMap, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}

	out := make(ir.SourceMap)
	if !info.IsDir() {
		content, err := os.ReadFile(entry)
		if err != nil {
			return nil, err
		}
		out[filepath.ToSlash(entry)] = string(content)
		return out, nil
	}

	err = filepath.WalkDir(entry, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		out[filepath.ToSlash(path)] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
