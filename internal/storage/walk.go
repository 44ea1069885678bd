package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkDir is filepath.WalkDir that follows symbolic links. A link to a
// directory is reported as a directory and descended into (unless fn
// returns filepath.SkipDir for it); a link to a file is reported with the
// target's type. Paths are reported as reached, through the link. Each real
// directory is entered at most once, so link cycles terminate.
func WalkDir(root string, fn fs.WalkDirFunc) error {
	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		err = fn(root, nil, err)
		if errors.Is(err, filepath.SkipDir) || errors.Is(err, filepath.SkipAll) {
			return nil
		}
		return err
	}
	return walkFollow(root, real, fn, map[string]bool{}, true)
}

// walkFollow walks the real directory real, reporting its paths under shown.
func walkFollow(shown, real string, fn fs.WalkDirFunc, seen map[string]bool, top bool) error {
	return filepath.WalkDir(real, func(p string, d fs.DirEntry, err error) error {
		at := shown
		if p != real {
			rel, relErr := filepath.Rel(real, p)
			if relErr != nil {
				return nil
			}
			at = filepath.Join(shown, rel)
		}
		if p == real && !top && err == nil {
			// Already reported as the link itself.
			seen[p] = true
			return nil
		}
		if err != nil {
			return fn(at, d, err)
		}
		if d.Type()&fs.ModeSymlink == 0 {
			if d.IsDir() {
				if seen[p] {
					return filepath.SkipDir
				}
				seen[p] = true
			}
			return fn(at, d, nil)
		}

		info, statErr := os.Stat(p)
		if statErr != nil {
			// Dangling link.
			return fn(at, d, statErr)
		}
		entry := fs.FileInfoToDirEntry(info)
		if !info.IsDir() {
			return fn(at, entry, nil)
		}
		target, evalErr := filepath.EvalSymlinks(p)
		if evalErr != nil || seen[target] {
			return nil
		}
		if err := fn(at, entry, nil); err != nil {
			if errors.Is(err, filepath.SkipDir) {
				return nil
			}
			return err
		}
		return walkFollow(at, target, fn, seen, false)
	})
}
