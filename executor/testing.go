package executor

import "sync"

// TestExecutor provides a shared executor for tests to avoid repeated
// runtime setup. Use GetTestExecutor() to get a shared instance.
var (
	testExecutor     *Executor
	testExecutorOnce sync.Once
	testExecutorErr  error
)

// GetTestExecutor returns a shared executor with every bridge primitive and
// the built-in modules.
func GetTestExecutor() (*Executor, error) {
	testExecutorOnce.Do(func() {
		testExecutor, testExecutorErr = New(nil)
	})
	return testExecutor, testExecutorErr
}

// CloseTestExecutor closes the shared test executor.
func CloseTestExecutor() {
	if testExecutor != nil {
		testExecutor.Close()
		testExecutor = nil
		testExecutorOnce = sync.Once{}
	}
}
