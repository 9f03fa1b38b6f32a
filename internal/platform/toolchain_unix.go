//go:build darwin || linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// checkExecutable uses access(2) so the answer matches what exec will see for the current user
func checkExecutable(path string) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%s is not executable: %w", path, err)
	}
	return nil
}
