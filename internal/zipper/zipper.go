// Package zipper streams a set of local files into one deterministic zip
// archive, keyed by basename.
package zipper

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/model"
)

// Zip writes outputPath as a zip archive containing inputs, one entry per
// file named by its basename. Basenames must be unique across inputs;
// Zip asserts this before writing anything. Streaming: each input is
// copied straight through without buffering the whole file. Any I/O
// error aborts and the partial output is deleted.
func Zip(fs filespace.FileSpace, outputPath string, inputs []model.TaskFile) error {
	if err := assertUniqueBasenames(inputs); err != nil {
		return err
	}

	w, err := fs.OpenWriter(outputPath)
	if err != nil {
		return fmt.Errorf("open zip output %s: %w", outputPath, err)
	}

	zw := zip.NewWriter(w)

	if err := writeEntries(fs, zw, inputs); err != nil {
		zw.Close()
		w.Close()
		_ = fs.Delete(outputPath)
		return err
	}

	if err := zw.Close(); err != nil {
		w.Close()
		_ = fs.Delete(outputPath)
		return fmt.Errorf("finalize zip %s: %w", outputPath, err)
	}
	if err := w.Close(); err != nil {
		_ = fs.Delete(outputPath)
		return fmt.Errorf("close zip output %s: %w", outputPath, err)
	}
	return nil
}

func writeEntries(fs filespace.FileSpace, zw *zip.Writer, inputs []model.TaskFile) error {
	for _, in := range inputs {
		r, err := fs.OpenReader(in.Path)
		if err != nil {
			return fmt.Errorf("open %s for zipping: %w", in.Path, err)
		}

		entry, err := zw.Create(in.Name)
		if err != nil {
			r.Close()
			return fmt.Errorf("create zip entry %s: %w", in.Name, err)
		}

		_, copyErr := io.Copy(entry, r)
		closeErr := r.Close()
		if copyErr != nil {
			return fmt.Errorf("write zip entry %s: %w", in.Name, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s after zipping: %w", in.Path, closeErr)
		}
	}
	return nil
}

func assertUniqueBasenames(inputs []model.TaskFile) error {
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.Name] {
			return fmt.Errorf("duplicate archive entry name: %s", in.Name)
		}
		seen[in.Name] = true
	}
	return nil
}
