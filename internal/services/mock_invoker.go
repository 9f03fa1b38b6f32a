package services

import (
	"context"
	"fmt"
	"sync"

	"cellar/internal/infrastructure/errors"
	"cellar/internal/types"
)

// InvokerCall records one call made to MockInvoker
type InvokerCall struct {
	Method  string
	Bottle  string
	Version types.WinVersion
	Flag    types.FeatureFlag
	Enabled bool
}

// MockInvoker implements wine.Invoker for testing. Calls can be held until
// Release is called, so tests can observe in-flight state.
type MockInvoker struct {
	mu             sync.Mutex
	calls          []InvokerCall
	shouldFailCfg  bool
	shouldFailVer  bool
	shouldFailFlag bool
	hold           chan struct{}
	started        chan InvokerCall
}

// NewMockInvoker creates a mock invoker whose calls return immediately
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{started: make(chan InvokerCall, 64)}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockInvoker) SetFailureModes(configTool, version, feature bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailCfg = configTool
	m.shouldFailVer = version
	m.shouldFailFlag = feature
}

// Hold makes every following call block until Release
func (m *MockInvoker) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hold == nil {
		m.hold = make(chan struct{})
	}
}

// Release unblocks held calls
func (m *MockInvoker) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hold != nil {
		close(m.hold)
		m.hold = nil
	}
}

// Started yields each call as it begins
func (m *MockInvoker) Started() <-chan InvokerCall {
	return m.started
}

// Calls returns the recorded calls in order
func (m *MockInvoker) Calls() []InvokerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]InvokerCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called
func (m *MockInvoker) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// OpenConfigTool implements wine.Invoker interface
func (m *MockInvoker) OpenConfigTool(ctx context.Context, bottle types.Bottle) error {
	fail := m.record(InvokerCall{Method: "OpenConfigTool", Bottle: bottle.Name}, func() bool { return m.shouldFailCfg })
	if fail {
		return errors.HandleInvocationError("OpenConfigTool", "wine64 winecfg", 1, "mock winecfg failure", fmt.Errorf("exit status 1"))
	}
	return nil
}

// SetPlatformVersion implements wine.Invoker interface
func (m *MockInvoker) SetPlatformVersion(ctx context.Context, bottle types.Bottle, version types.WinVersion) error {
	fail := m.record(InvokerCall{Method: "SetPlatformVersion", Bottle: bottle.Name, Version: version}, func() bool { return m.shouldFailVer })
	if fail {
		return errors.HandleInvocationError("SetPlatformVersion", "wine64 winecfg -v "+version.WinecfgArg(), 1, "mock version failure", fmt.Errorf("exit status 1"))
	}
	return nil
}

// SetFeature implements wine.Invoker interface
func (m *MockInvoker) SetFeature(ctx context.Context, bottle types.Bottle, flag types.FeatureFlag, enabled bool) error {
	fail := m.record(InvokerCall{Method: "SetFeature", Bottle: bottle.Name, Flag: flag, Enabled: enabled}, func() bool { return m.shouldFailFlag })
	if fail {
		return errors.HandleInvocationError("SetFeature", "wine64 reg", 1, "mock registry failure", fmt.Errorf("exit status 1"))
	}
	return nil
}

// record stores the call, announces it, waits on any hold and reports whether to fail
func (m *MockInvoker) record(call InvokerCall, fail func() bool) bool {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	hold := m.hold
	m.mu.Unlock()

	select {
	case m.started <- call:
	default:
	}

	if hold != nil {
		<-hold
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return fail()
}

// MockPackageInstaller implements wine.PackageInstaller for testing
type MockPackageInstaller struct {
	mu         sync.Mutex
	paths      []string
	shouldFail bool
	hold       chan struct{}
}

// NewMockPackageInstaller creates a mock installer that succeeds immediately
func NewMockPackageInstaller() *MockPackageInstaller {
	return &MockPackageInstaller{}
}

// SetShouldFail configures the mock to simulate a failed install
func (m *MockPackageInstaller) SetShouldFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
}

// Hold makes following installs block until Release
func (m *MockPackageInstaller) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hold == nil {
		m.hold = make(chan struct{})
	}
}

// Release unblocks held installs
func (m *MockPackageInstaller) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hold != nil {
		close(m.hold)
		m.hold = nil
	}
}

// Paths returns the paths passed to InstallPackage, in call order
func (m *MockPackageInstaller) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// InstallPackage implements wine.PackageInstaller interface
func (m *MockPackageInstaller) InstallPackage(ctx context.Context, path string) error {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	hold := m.hold
	m.mu.Unlock()

	if hold != nil {
		<-hold
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return errors.HandleInvocationError("InstallPackage", "hdiutil attach", 1, "mock attach failure", fmt.Errorf("exit status 1"))
	}
	return nil
}
