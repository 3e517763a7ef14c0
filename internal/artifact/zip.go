package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipFolder writes every regular file below src into a deflate-compressed
// archive at dst, named by its slash-separated path relative to src
func ZipFolder(src, dst string) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive %s: %w", dst, cerr)
		}
	}()

	absDst, _ := filepath.Abs(dst)

	w := zip.NewWriter(out)
	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absDst {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			// symlink to a directory
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return addFile(w, path, filepath.ToSlash(rel), info)
	})
	if walkErr != nil {
		_ = w.Close()
		return fmt.Errorf("failed to zip %s: %w", src, walkErr)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", dst, err)
	}
	return nil
}

func addFile(w *zip.Writer, path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}
