package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"go.uber.org/zap"
)

var (
	ErrPathIsDir  = errors.New("supplied path is a directory")
	ErrPathIsFile = errors.New("supplied path is a file")
)

// CreateFileP Creates a file and all its directories
// Make sure you close the file when using this function!
func CreateFileP(filePath string, perm fs.FileMode) (*os.File, error) {
	absDirPath, err := filepath.Abs(filepath.Dir(filePath))
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(absDirPath, perm)
	if err != nil {
		return nil, err
	}

	return os.Create(filePath)
}

func WriteTo(filePath string, text string) error {
	f, err := CreateFileP(filePath, 0750)
	if err != nil {
		return err
	}

	// Close the file when done
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	// Write string to file
	_, err = f.WriteString(text)
	return err
}

// EnsureDir creates the directory (and parents) if it does not exist yet
func EnsureDir(path string, perm fs.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}

	return IsDir(path)
}

// MoveFile moves sourcePath to destPath. An existing file at destPath is removed
// first, so repeated moves onto the same name always succeed.
func MoveFile(sourcePath string, destPath string) error {
	if err := Exists(destPath); err == nil {
		log.Debug("destination exists, replacing", zap.String("dest", destPath))
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("remove existing destination: %w", err)
		}
	} else if errors.Is(err, ErrPathIsDir) {
		return fmt.Errorf("destination %s: %w", destPath, err)
	}

	err := os.Rename(sourcePath, destPath)
	if err == nil {
		return nil
	}

	// Rename does not work across file systems, fall back to copy + remove
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	return copyAndRemove(sourcePath, destPath)
}

func copyAndRemove(sourcePath string, destPath string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer func(in *os.File) {
		_ = in.Close()
	}(in)

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return err
	}

	if err = out.Close(); err != nil {
		return err
	}

	return os.Remove(sourcePath)
}

// Remove deletes the file, a file that is already gone is not an error
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// NewestMatch returns the most recently modified regular file matching the glob pattern
func NewestMatch(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}

	type candidate struct {
		path string
		info fs.FileInfo
	}

	var candidates []candidate
	for _, m := range matches {
		s, err := os.Stat(m)
		if err != nil || s.IsDir() {
			continue
		}
		candidates = append(candidates, candidate{m, s})
	}

	if len(candidates) == 0 {
		return "", fs.ErrNotExist
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].info.ModTime().After(candidates[j].info.ModTime())
	})

	return candidates[0].path, nil
}

func Info(path string) (fs.FileInfo, error) {
	s, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func Exists(path string) error {
	s, err := Info(path)
	if err != nil {
		return err
	}

	if s.IsDir() {
		return ErrPathIsDir
	}

	return nil
}

func IsDir(path string) error {
	s, err := Info(path)
	if err != nil {
		return err
	}

	if !s.IsDir() {
		return ErrPathIsFile
	}

	return nil
}
