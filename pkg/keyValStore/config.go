package keyValStore

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type StoreConfig struct {
	Paths             []string // absolute path, only the first path is used
	InMemory          bool     // Paths is ignored when set
	MinimumFreeSpace  int      // in GB
	DefaultTTLSeconds int
	GCInterval        time.Duration // zero disables the background value log GC
	Logger            *logrus.Logger
}

func (sc *StoreConfig) checkConfig() error {
	if sc.InMemory {
		return nil
	}

	if len(sc.Paths) == 0 {
		return errors.New("no path provided in configuration")
	}

	path := sc.Paths[0]
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("error reading path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}

	availableSpaceInGB, err := freeSpaceGB(path)
	if err != nil {
		return err
	}
	if int(availableSpaceInGB) < sc.MinimumFreeSpace {
		return fmt.Errorf("not enough space available on disk: %d GB free, %d GB required",
			availableSpaceInGB, sc.MinimumFreeSpace)
	}

	return nil
}
