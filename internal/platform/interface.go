package platform

// Toolchain locates the compatibility layer on the host
type Toolchain interface {
	// WineBinary is the absolute path (or PATH-resolved name) of the wine64 launcher
	WineBinary() string
	// LibraryDir is where GPTK redistributable libraries are installed
	LibraryDir() string
	// Verify reports whether the toolchain can run commands on this host
	Verify() error
}

// StaticToolchain is a Toolchain with fixed paths, used by tests and config overrides
type StaticToolchain struct {
	Wine    string
	Library string
	Err     error
}

func (s *StaticToolchain) WineBinary() string { return s.Wine }
func (s *StaticToolchain) LibraryDir() string { return s.Library }
func (s *StaticToolchain) Verify() error      { return s.Err }
