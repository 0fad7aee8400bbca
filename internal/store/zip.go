// SPDX-License-Identifier: MIT

package store

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Zip streams a zip archive of the listed paths to w. Directories are added
// recursively with archive names relative to the root. Paths that fail the
// confinement check or no longer exist are skipped, matching the browse UI's
// forgiving multi-select semantics.
func (s *Store) Zip(w io.Writer, rels []string) (added int, err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close zip: %w", cerr)
		}
	}()

	for _, rel := range rels {
		abs, rerr := s.Resolve(rel)
		if rerr != nil {
			continue
		}
		info, serr := os.Stat(abs)
		if serr != nil {
			continue
		}
		if info.IsDir() {
			werr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, werr error) error {
				if werr != nil {
					return werr
				}
				if d.IsDir() {
					return nil
				}
				arc, rerr := filepath.Rel(s.root, path)
				if rerr != nil {
					return rerr
				}
				if aerr := s.addZipEntry(zw, path, filepath.ToSlash(arc)); aerr != nil {
					return aerr
				}
				added++
				return nil
			})
			if werr != nil {
				return added, werr
			}
			continue
		}
		if aerr := s.addZipEntry(zw, abs, filepath.ToSlash(rel)); aerr != nil {
			return added, aerr
		}
		added++
	}
	return added, nil
}

func (s *Store) addZipEntry(zw *zip.Writer, abs, arcname string) error {
	f, err := os.Open(abs) // #nosec G304 -- abs went through Resolve
	if err != nil {
		return fmt.Errorf("open %s: %w", arcname, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = arcname
	hdr.Method = zip.Deflate

	entry, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}
