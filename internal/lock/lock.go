package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const fileName = "LOCK"

// HeldError is returned when another process already has the profile open.
type HeldError struct {
	PID   int
	Owner string
	Path  string
}

func (e *HeldError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("profile lock held by %s (PID %d, %s)", e.Owner, e.PID, e.Path)
	}
	return fmt.Sprintf("profile lock held by PID %d (%s)", e.PID, e.Path)
}

// Lock is an exclusive flock on a profile directory.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the profile lock for owner (the program name recorded in
// the lock file). Returns *HeldError if another process holds it.
func Acquire(profileDir, owner string) (*Lock, error) {
	if err := os.MkdirAll(profileDir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	path := filepath.Join(profileDir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(path)
		_ = f.Close()
		held := &HeldError{Path: path}
		held.PID, held.Owner = parse(string(data))
		return nil, held
	}

	if err := write(f, owner); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. Safe on a nil or already released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func write(f *os.File, owner string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	content := fmt.Sprintf("pid=%d\nowner=%s\ntime=%s\n",
		os.Getpid(), owner, time.Now().UTC().Format(time.RFC3339))
	_, err := f.WriteString(content)
	return err
}

func parse(content string) (pid int, owner string) {
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			pid, _ = strconv.Atoi(value)
		case "owner":
			owner = value
		}
	}
	return pid, owner
}
