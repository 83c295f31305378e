package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Digest is the fingerprint of a build context.
type Digest struct {
	Hash  string
	Files int
}

type fileEntry struct {
	rel    string
	abs    string
	mode   fs.FileMode
	digest string
}

// Fingerprint hashes every file under dir that is not excluded by
// .dockerignore or inside .git. dockerfile (relative to dir) and .dockerignore
// are always hashed. File digests are computed concurrently and combined in
// sorted path order, so the result only depends on relative paths, permission
// bits and contents.
func Fingerprint(ctx context.Context, dir, dockerfile string, concurrency int) (*Digest, error) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	ignore, err := loadIgnore(dir, dockerfile)
	if err != nil {
		return nil, err
	}

	var files []*fileEntry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.prune(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.excluded(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, &fileEntry{rel: rel, abs: path, mode: info.Mode()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			digest, err := digestFile(f)
			if err != nil {
				return err
			}
			f.digest = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\x00%s\n", f.rel, modeString(f.mode), f.digest)
	}

	return &Digest{Hash: hex.EncodeToString(h.Sum(nil)), Files: len(files)}, nil
}

// Dirs lists dir and every directory beneath it that Fingerprint descends
// into, so a caller can watch exactly the files that affect the hash.
func Dirs(dir, dockerfile string) ([]string, error) {
	ignore, err := loadIgnore(dir, dockerfile)
	if err != nil {
		return nil, err
	}

	var dirs []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel != "." && ignore.prune(d.Name(), filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return dirs, nil
}

func digestFile(f *fileEntry) (string, error) {
	h := sha256.New()

	if f.mode&fs.ModeSymlink != 0 {
		target, err := os.Readlink(f.abs)
		if err != nil {
			return "", err
		}
		_, _ = io.WriteString(h, target)
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	file, err := os.Open(f.abs)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("%s: %w", f.rel, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// modeString keeps the file type and permission bits.
func modeString(m fs.FileMode) string {
	return fmt.Sprintf("%o", uint32(m.Type()|m.Perm()))
}
