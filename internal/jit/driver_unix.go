//go:build unix

// Package jit's dynamic-loading half. This is the one place the module
// reaches for cgo instead of a third-party package: there is no
// dependable pure-Go dlopen binding, and <dlfcn.h> is the direct way to
// load a freshly compiled shared object and resolve its symbols.
package jit

/*
#include <dlfcn.h>
#include <stdlib.h>

typedef int           (*annc_version_fn)(void);
typedef unsigned long long (*annc_size_fn)(void);
typedef void           (*annc_initialize_fn)(unsigned char *);
typedef const void *   (*annc_activate_fn)(unsigned char *, const void *);
typedef void           (*annc_train_fn)(unsigned char *, const void *, const void *);

static int annc_call_version(void *fn) {
	return ((annc_version_fn)fn)();
}

static unsigned long long annc_call_size(void *fn) {
	return ((annc_size_fn)fn)();
}

static void annc_call_initialize(void *fn, unsigned char *arena) {
	((annc_initialize_fn)fn)(arena);
}

static const void *annc_call_activate(void *fn, unsigned char *arena, const void *x) {
	return ((annc_activate_fn)fn)(arena, x);
}

static void annc_call_train(void *fn, unsigned char *arena, const void *x, const void *y) {
	((annc_train_fn)fn)(arena, x, y);
}
*/
import "C"

import (
	"unsafe"

	"github.com/annc-dev/annc/internal/xerrors"
)

// library wraps a dlopen'd shared object.
type library struct {
	handle unsafe.Pointer
}

func dlopenLibrary(path string) (*library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	h := C.dlopen(cpath, C.RTLD_LAZY|C.RTLD_LOCAL)
	if h == nil {
		return nil, xerrors.New(xerrors.Jitc, "jit.dlopenLibrary", "dlopen failed: "+path, nil)
	}
	return &library{handle: h}, nil
}

func (l *library) sym(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	p := C.dlsym(l.handle, cname)
	if p == nil {
		return nil, xerrors.New(xerrors.Jitc, "jit.library.sym", "dlsym failed: "+name, nil)
	}
	return p, nil
}

func (l *library) close() error {
	if l == nil || l.handle == nil {
		return nil
	}
	if C.dlclose(l.handle) != 0 {
		return xerrors.New(xerrors.System, "jit.library.close", "dlclose failed", nil)
	}
	l.handle = nil
	return nil
}

func callVersion(fn unsafe.Pointer) int {
	return int(C.annc_call_version(fn))
}

func callSize(fn unsafe.Pointer) uint64 {
	return uint64(C.annc_call_size(fn))
}

func callInitialize(fn unsafe.Pointer, arena unsafe.Pointer) {
	C.annc_call_initialize(fn, (*C.uchar)(arena))
}

func callActivate(fn unsafe.Pointer, arena, x unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.annc_call_activate(fn, (*C.uchar)(arena), x))
}

func callTrain(fn unsafe.Pointer, arena, x, y unsafe.Pointer) {
	C.annc_call_train(fn, (*C.uchar)(arena), x, y)
}

func mallocArena(n uint64) unsafe.Pointer {
	p := C.malloc(C.size_t(n))
	if p != nil {
		C.memset(p, 0, C.size_t(n))
	}
	return p
}

func freeArena(p unsafe.Pointer) {
	C.free(p)
}
