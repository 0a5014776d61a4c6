package poller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"modelrepomgr/internal/common/fsutil"
	"modelrepomgr/pkg/types"
)

// repoRoot is one registered repository directory, optionally constrained
// to a subset of model names via ModelMapping (served name -> on-disk
// subdirectory name).
type repoRoot struct {
	path         string
	modelMapping map[string]string // served name -> on-disk subdirectory name
}

// modelState is what FilesystemPoller remembers between polls, used to
// classify a directory as modified vs unmodified without re-decoding its
// config file every tick.
type modelState struct {
	configPath string
	modTime    time.Time
	size       int64
	versions   []int64
	repoPath   string
}

// FilesystemPoller is the concrete RepositoryPoller: it scans registered
// repository directories for per-model subdirectories, each holding a
// config.{yaml,yml,json,toml,hcl} file plus integer-named version
// subdirectories.
//
// A namespaced FilesystemPoller treats each repository root's base name as
// the namespace for models found directly beneath it.
type FilesystemPoller struct {
	mu               sync.Mutex
	roots            []repoRoot
	namespacingByDir bool
	prior            map[types.ModelIdentifier]modelState
	duplicates       map[types.ModelIdentifier][]string
}

// DuplicateModels reports, per the most recent PollModels call, every
// model identifier that was found under more than one registered
// repository root, along with the root paths it appeared under. The
// manager surfaces this as the RepositoryIndex "model appears in two or
// more repositories" reason.
func (p *FilesystemPoller) DuplicateModels() map[types.ModelIdentifier][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[types.ModelIdentifier][]string, len(p.duplicates))
	for id, roots := range p.duplicates {
		out[id] = append([]string(nil), roots...)
	}
	return out
}

// NewFilesystemPoller constructs a poller with no repositories registered
// yet; callers add roots via RegisterRepository.
func NewFilesystemPoller(namespacingByDir bool) *FilesystemPoller {
	return &FilesystemPoller{
		namespacingByDir: namespacingByDir,
		prior:            make(map[types.ModelIdentifier]modelState),
	}
}

// RegisterRepository adds a repository root to scan. modelMapping may be
// nil to mean "serve every model subdirectory under its own name".
func (p *FilesystemPoller) RegisterRepository(path string, modelMapping map[string]string) error {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf("abs path: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.roots {
		if r.path == abs {
			return fmt.Errorf("repository %s is already registered", abs)
		}
	}
	p.roots = append(p.roots, repoRoot{path: abs, modelMapping: modelMapping})
	return nil
}

// UnregisterRepository removes a previously registered root. It does not
// touch any node already present in the dependency graph; the next poll's
// Deleted set carries the fallout.
func (p *FilesystemPoller) UnregisterRepository(path string) error {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf("abs path: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.roots {
		if r.path == abs {
			p.roots = append(p.roots[:i], p.roots[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("repository %s is not registered", abs)
}

// Repositories returns the currently registered root paths, sorted for
// stable output.
func (p *FilesystemPoller) Repositories() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.roots))
	for _, r := range p.roots {
		out = append(out, r.path)
	}
	sort.Strings(out)
	return out
}

// PollModels scans every registered repository root (or just the
// directories backing `requested`, when non-empty) and classifies each
// model subdirectory it finds.
func (p *FilesystemPoller) PollModels(ctx context.Context, requested IDSet) (PollResult, error) {
	p.mu.Lock()
	roots := make([]repoRoot, len(p.roots))
	copy(roots, p.roots)
	p.mu.Unlock()

	result := PollResult{
		Added:      make(IDSet),
		Deleted:    make(IDSet),
		Modified:   make(IDSet),
		Unmodified: make(IDSet),
		Infos:      make(map[types.ModelIdentifier]types.ModelInfo),
		AllPolled:  true,
	}

	seenOnDisk := make(map[types.ModelIdentifier]modelState)
	seenAt := make(map[types.ModelIdentifier][]string) // for duplicate-name detection across roots
	failedIDs := make(IDSet)
	failedRoots := make(map[string]bool)

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		entries, err := os.ReadDir(root.path)
		if err != nil {
			result.AllPolled = false
			failedRoots[root.path] = true
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dirName := e.Name()
			servedName := dirName
			if root.modelMapping != nil {
				mapped, ok := "", false
				for served, dir := range root.modelMapping {
					if dir == dirName {
						mapped, ok = served, true
						break
					}
				}
				if !ok {
					continue
				}
				servedName = mapped
			}
			modelDir := filepath.Join(root.path, dirName)
			id := p.identifierFor(root, servedName)
			if len(requested) > 0 {
				if _, wanted := requested[id]; !wanted {
					continue
				}
			}

			st, info, ok, err := p.scanModelDir(id, root.path, modelDir)
			if err != nil {
				result.AllPolled = false
				failedIDs.addID(id)
				continue
			}
			if !ok {
				continue
			}
			seenOnDisk[id] = st
			seenAt[id] = append(seenAt[id], root.path)
			result.Infos[id] = info
		}
	}

	duplicates := make(map[types.ModelIdentifier][]string)
	for id, roots := range seenAt {
		if len(roots) > 1 {
			duplicates[id] = roots
			delete(seenOnDisk, id)
			delete(result.Infos, id)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.duplicates = duplicates

	for id, st := range seenOnDisk {
		prev, existed := p.prior[id]
		switch {
		case !existed:
			result.Added.addID(id)
		case !sameModelState(prev, st):
			result.Modified.addID(id)
		default:
			result.Unmodified.addID(id)
		}
		p.prior[id] = st
	}

	if len(requested) == 0 {
		for id, prev := range p.prior {
			if _, stillPresent := seenOnDisk[id]; !stillPresent {
				if _, failed := failedIDs[id]; failed || failedRoots[prev.repoPath] {
					continue
				}
				result.Deleted.addID(id)
				delete(p.prior, id)
			}
		}
	} else {
		for id := range requested {
			if _, stillPresent := seenOnDisk[id]; !stillPresent {
				if prev, wasKnown := p.prior[id]; wasKnown {
					if _, failed := failedIDs[id]; failed || failedRoots[prev.repoPath] {
						continue
					}
					result.Deleted.addID(id)
					delete(p.prior, id)
				}
			}
		}
	}

	return result, nil
}

func (s IDSet) addID(id types.ModelIdentifier) { s[id] = struct{}{} }

// identifierFor derives the ModelIdentifier a model subdirectory is served
// under. With namespacing enabled, the repository root's base directory
// name becomes the namespace; otherwise every model lives in the default
// (unnamespaced) space regardless of which root it was found under.
func (p *FilesystemPoller) identifierFor(root repoRoot, servedName string) types.ModelIdentifier {
	if !p.namespacingByDir {
		return types.NewIdentifier(servedName)
	}
	return types.ModelIdentifier{Namespace: filepath.Base(root.path), Name: servedName}
}

// scanModelDir reads one model subdirectory's config file and version
// directories, returning the bookkeeping state plus the decoded ModelInfo.
func (p *FilesystemPoller) scanModelDir(id types.ModelIdentifier, repoPath, modelDir string) (modelState, types.ModelInfo, bool, error) {
	configPath, fi, err := findConfigFile(modelDir)
	if err != nil {
		return modelState{}, types.ModelInfo{}, false, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return modelState{}, types.ModelInfo{}, false, err
	}
	cfg, err := decodeConfigFile(configPath, data, modelDir, repoPath)
	if err != nil {
		return modelState{}, types.ModelInfo{}, false, err
	}
	versions := listVersionDirs(modelDir)

	info := types.ModelInfo{
		ID:             id,
		ModelConfig:    cfg,
		ExplicitlyLoad: false,
		AgentModelList: versions,
		ModTime:        fi.ModTime(),
	}
	st := modelState{
		configPath: configPath,
		modTime:    fi.ModTime(),
		size:       fi.Size(),
		versions:   versions,
		repoPath:   repoPath,
	}
	return st, info, true, nil
}

func findConfigFile(modelDir string) (string, os.FileInfo, error) {
	for _, name := range supportedConfigNames {
		p := filepath.Join(modelDir, name)
		if fi, err := os.Stat(p); err == nil {
			return p, fi, nil
		}
	}
	return "", nil, fmt.Errorf("no config file found in %s", modelDir)
}

func listVersionDirs(modelDir string) []int64 {
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return nil
	}
	var versions []int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(e.Name()), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, n)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

func sameModelState(a, b modelState) bool {
	if a.configPath != b.configPath || !a.modTime.Equal(b.modTime) || a.size != b.size || a.repoPath != b.repoPath {
		return false
	}
	if len(a.versions) != len(b.versions) {
		return false
	}
	for i := range a.versions {
		if a.versions[i] != b.versions[i] {
			return false
		}
	}
	return true
}
