// Package perms holds the file and directory modes used when writing to disk.
package perms

import "os"

const (
	// RegularFile is used for configuration files: owner read/write, everyone else read.
	RegularFile os.FileMode = 0o644

	// SecureFile is used for files which may contain secrets, such as logs: owner read/write only.
	SecureFile os.FileMode = 0o600
)

const (
	// RegularDir is used for directories holding configuration files.
	RegularDir os.FileMode = 0o755

	// SecureDir is used for directories holding log files: owner only.
	SecureDir os.FileMode = 0o700
)
