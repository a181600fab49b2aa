// Package jit implements the Build-and-Load Driver: it writes emitted
// source to a temporary file, invokes the native toolchain, dynamically
// loads the resulting shared object, resolves the six ABI entry points,
// and unlinks every temporary file it created.
package jit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/annc-dev/annc/internal/xerrors"
	"github.com/annc-dev/annc/slrand"
)

// Artifact is the minimal input jit needs from the Code Emitter: source
// text, its extension (c or cu), and a header. The header is unused by
// the build itself; it is written alongside the source so a caller
// inspecting the temporary directory always finds both files.
type Artifact struct {
	Module    string
	SourceExt string
	Source    string
	Header    string
}

// Handle is a loaded module: a dlopen'd shared object plus the six
// resolved entry points, ready for the Facade to drive.
type Handle struct {
	lib *library

	versionFn     unsafe.Pointer
	memorySizeFn  unsafe.Pointer
	memoryHardFn  unsafe.Pointer
	initializeFn  unsafe.Pointer
	activateFn    unsafe.Pointer
	trainFn       unsafe.Pointer
}

var tagCounter slrand.Uint2

func tempDir() string {
	for _, env := range []string{"TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "."
}

// Build writes art to a temporary source/header pair, compiles it, loads
// it, and resolves its entry points. Entry points are resolved under
// their unprefixed names, so art must have been emitted with an empty
// prefix. The Facade always forces prefix ""; the `annc run` command
// passes its spec file's prefix through unchanged, so a prefixed spec
// fails symbol resolution there.
func Build(ctx context.Context, art *Artifact) (*Handle, error) {
	tag := slrand.Next(&tagCounter)
	dir := tempDir()
	base := fmt.Sprintf("_%x_%s", tag, art.Module)

	srcPath := filepath.Join(dir, base+"."+art.SourceExt)
	hdrPath := filepath.Join(dir, base+".h")
	soPath := filepath.Join(dir, base+".so")

	if err := os.WriteFile(srcPath, []byte(art.Source), 0o600); err != nil {
		return nil, xerrors.New(xerrors.File, "jit.Build", "could not write source", err)
	}
	defer os.Remove(srcPath)

	if err := os.WriteFile(hdrPath, []byte(art.Header), 0o600); err != nil {
		return nil, xerrors.New(xerrors.File, "jit.Build", "could not write header", err)
	}
	defer os.Remove(hdrPath)

	if err := compile(ctx, srcPath, soPath); err != nil {
		return nil, err
	}
	defer os.Remove(soPath)

	lib, err := dlopenLibrary(soPath)
	if err != nil {
		return nil, err
	}
	// The loaded image remains valid after the backing file is unlinked;
	// the deferred os.Remove(soPath) above runs before we return.

	h := &Handle{lib: lib}
	for name, dst := range map[string]*unsafe.Pointer{
		"version":      &h.versionFn,
		"memory_size":  &h.memorySizeFn,
		"memory_hard":  &h.memoryHardFn,
		"initialize":   &h.initializeFn,
		"activate":     &h.activateFn,
		"train":        &h.trainFn,
	} {
		p, err := lib.sym(name)
		if err != nil {
			lib.close()
			return nil, err
		}
		*dst = p
	}

	logrus.WithField("module", art.Module).Debug("jit: module built and loaded")
	return h, nil
}

// Version calls the loaded module's version entry point.
func (h *Handle) Version() int { return callVersion(h.versionFn) }

// MemorySize calls the loaded module's memory_size entry point.
func (h *Handle) MemorySize() uint64 { return callSize(h.memorySizeFn) }

// MemoryHard calls the loaded module's memory_hard entry point.
func (h *Handle) MemoryHard() uint64 { return callSize(h.memoryHardFn) }

// Initialize calls the loaded module's initialize entry point.
func (h *Handle) Initialize(arena unsafe.Pointer) { callInitialize(h.initializeFn, arena) }

// Activate calls the loaded module's activate entry point.
func (h *Handle) Activate(arena, x unsafe.Pointer) unsafe.Pointer {
	return callActivate(h.activateFn, arena, x)
}

// Train calls the loaded module's train entry point.
func (h *Handle) Train(arena, x, y unsafe.Pointer) { callTrain(h.trainFn, arena, x, y) }

// MallocArena allocates and zeroes n bytes outside Go's garbage
// collector, owned by the caller until FreeArena.
func MallocArena(n uint64) unsafe.Pointer { return mallocArena(n) }

// FreeArena releases memory obtained from MallocArena.
func FreeArena(p unsafe.Pointer) { freeArena(p) }

// Close unloads the module.
func (h *Handle) Close() error {
	if h == nil || h.lib == nil {
		return nil
	}
	return h.lib.close()
}
