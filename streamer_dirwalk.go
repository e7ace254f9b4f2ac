package tarstream

import (
	"os"
	"path/filepath"
	"strings"
)

type walkItem struct {
	path string
	name string
}

// walkDirAll implements Streamer.AppendDirAll/AppendDirAllWithName with an
// explicit LIFO stack rather than recursion, so a deeply nested tree doesn't
// grow the Go call stack. srcRoot is stat'd and descended into but never
// queued as an entry itself; every descendant's archive name is archiveRoot
// joined with its path relative to srcRoot. Call AppendDir(srcRoot) first if
// the root directory needs a header of its own.
func walkDirAll(s *Streamer, archiveRoot, srcRoot string) error {
	stack := []walkItem{{path: srcRoot, name: archiveRoot}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		isRoot := item.path == srcRoot

		meta, err := statPath(item.path, false)
		if err != nil {
			return err
		}

		// A symlink to a directory is walked like a directory when
		// following is enabled (streamer.rs:480's
		// `is_dir || (is_symlink && self.follow && src.is_dir())`); the
		// queued directory entry then reflects the target's metadata, not
		// the symlink's own.
		recurse := meta.IsDir
		if !recurse && meta.IsSymlink && s.followSymlinks {
			followed, err := statPath(item.path, true)
			if err != nil {
				return err
			}
			if followed.IsDir {
				meta = followed
				recurse = true
			}
		}

		switch {
		case recurse:
			if !isRoot {
				if err := s.appendSpecial(item.name, TypeDir, meta); err != nil {
					return err
				}
			}
			children, err := readDirNames(item.path)
			if err != nil {
				return err
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, walkItem{
					path: filepath.Join(item.path, children[i]),
					name: joinArchiveName(item.name, children[i]),
				})
			}

		case meta.IsSymlink && !s.followSymlinks:
			if isRoot {
				continue
			}
			target, err := readLink(item.path)
			if err != nil {
				return err
			}
			if err := s.AppendSymlink(item.name, target); err != nil {
				return err
			}

		case meta.IsFifo:
			if isRoot {
				continue
			}
			if err := s.appendSpecial(item.name, TypeFifo, meta); err != nil {
				return err
			}

		case meta.IsCharDev:
			if isRoot {
				continue
			}
			if err := s.appendSpecial(item.name, TypeChar, meta); err != nil {
				return err
			}

		case meta.IsBlockDev:
			if isRoot {
				continue
			}
			if err := s.appendSpecial(item.name, TypeBlock, meta); err != nil {
				return err
			}

		case meta.IsSocket:
			return &UnsupportedFileTypeError{Path: item.path, Reason: "sockets have no tar representation"}

		default:
			if isRoot {
				continue
			}
			if err := s.AppendFileWithName(item.path, item.name); err != nil {
				return err
			}
		}
	}
	return nil
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapFSError("reading directory", dir, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func joinArchiveName(parent, child string) string {
	parent = strings.TrimSuffix(parent, "/")
	return parent + "/" + child
}
