// Package gitinfo reports the branch and commit a project directory is
// checked out at, by reading the .git directory directly. No git binary is
// needed. Lookups are cached for a short TTL since the tools ask on every
// changelog write and every listing.
package gitinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Info is the checkout state of a repository.
type Info struct {
	Branch string `json:"branch,omitempty"` // empty when HEAD is detached
	Commit string `json:"commit,omitempty"` // full hex sha
}

// Short returns the abbreviated commit, or "".
func (i Info) Short() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Reader resolves Info for a project root, caching results.
type Reader struct {
	root  string
	cache *gocache.Cache
}

// NewReader creates a reader for root. ttl <= 0 disables caching.
func NewReader(root string, ttl time.Duration) *Reader {
	r := &Reader{root: root}
	if ttl > 0 {
		r.cache = gocache.New(ttl, 2*ttl)
	}
	return r
}

// Info returns the checkout state of the reader's root. ok is false when the
// root is not inside a git repository or HEAD cannot be resolved.
func (r *Reader) Info() (Info, bool) {
	if r.cache != nil {
		if v, found := r.cache.Get(r.root); found {
			info := v.(Info)
			return info, info.Commit != ""
		}
	}
	info, err := Read(r.root)
	if err != nil {
		info = Info{}
	}
	if r.cache != nil {
		r.cache.SetDefault(r.root, info)
	}
	return info, info.Commit != ""
}

// Commit returns the abbreviated commit of the root, or "".
func (r *Reader) Commit() string {
	info, _ := r.Info()
	return info.Short()
}

// Invalidate drops the cached state.
func (r *Reader) Invalidate() {
	if r.cache != nil {
		r.cache.Delete(r.root)
	}
}

// ErrNotRepository is returned when no .git directory is found.
var ErrNotRepository = errors.New("not a git repository")

// Read resolves the checkout state of the repository containing dir,
// walking up parent directories to find .git.
func Read(dir string) (Info, error) {
	gitDir, err := findGitDir(dir)
	if err != nil {
		return Info{}, err
	}

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return Info{}, fmt.Errorf("reading HEAD: %w", err)
	}
	line := strings.TrimSpace(string(head))

	ref, isRef := strings.CutPrefix(line, "ref: ")
	if !isRef {
		return Info{Commit: line}, nil
	}

	info := Info{Branch: strings.TrimPrefix(ref, "refs/heads/")}
	commit, err := resolveRef(gitDir, ref)
	if err != nil {
		// Unborn branch: no commits yet.
		return info, nil
	}
	info.Commit = commit
	return info, nil
}

// findGitDir walks up from dir to the first .git entry. A .git file (as in
// worktrees and submodules) is followed to the directory it names.
func findGitDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, ".git")
		st, err := os.Stat(candidate)
		switch {
		case err == nil && st.IsDir():
			return candidate, nil
		case err == nil:
			return readGitFile(candidate)
		case !errors.Is(err, fs.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir: ")
	if !ok {
		return "", fmt.Errorf("%s: unrecognised .git file", path)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, nil
}

// resolveRef looks ref up as a loose ref file, then in packed-refs. For
// linked worktrees the shared refs live in the common directory.
func resolveRef(gitDir, ref string) (string, error) {
	dirs := []string{gitDir}
	if common, err := os.ReadFile(filepath.Join(gitDir, "commondir")); err == nil {
		c := strings.TrimSpace(string(common))
		if !filepath.IsAbs(c) {
			c = filepath.Join(gitDir, c)
		}
		dirs = append(dirs, c)
	}

	for _, d := range dirs {
		if data, err := os.ReadFile(filepath.Join(d, filepath.FromSlash(ref))); err == nil {
			return strings.TrimSpace(string(data)), nil
		}
		if sha, ok := lookupPacked(filepath.Join(d, "packed-refs"), ref); ok {
			return sha, nil
		}
	}
	return "", fmt.Errorf("ref %s not found", ref)
}

func lookupPacked(path, ref string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		sha, name, ok := strings.Cut(line, " ")
		if ok && name == ref {
			return sha, true
		}
	}
	return "", false
}
