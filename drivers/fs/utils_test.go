package fs_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/preservio/ocfl/drivers/fs"
)

func TestAtomicWriteCommit(t *testing.T) {
	tempDir := t.TempDir()
	fileName := filepath.Join(tempDir, "atomicCommit")

	content := "(╯°□°）╯︵ ┻━┻"
	_ = os.WriteFile(fileName, []byte("previous content"), 0664)

	writer, _ := fs.AtomicWrite(fileName)
	defer func() {
		err := writer.Close()
		if err != nil {
			t.Errorf("deferred close failed! %s", err)
		}
	}()

	_, _ = io.WriteString(writer, content)

	if err := writer.Close(); err != nil {
		t.Errorf("writer failed close! %s", err)
	}

	readBytes, _ := os.ReadFile(fileName)

	if string(readBytes) != content {
		t.Errorf("did not read the expected content from atomic write")
	}
}

func TestAtomicWriteRollback(t *testing.T) {
	tempDir := t.TempDir()
	fileName := filepath.Join(tempDir, "rollback")
	writer, _ := fs.AtomicWrite(fileName)
	defer func() {
		err := writer.Rollback()
		if err != nil {
			t.Errorf("deferred rollback failed! %s", err)
		}
	}()

	_, _ = io.WriteString(writer, "something")
	err := writer.Rollback()
	if err != nil {
		t.Errorf("error rolling back! %s", err)
	}

	files, err := os.ReadDir(tempDir)
	if err != nil || len(files) > 0 {
		t.Errorf("rollback did not clean up temp files!")
	}
}

func TestAtomicConflict(t *testing.T) {
	tempDir := t.TempDir()
	fileName := filepath.Join(tempDir, "err")

	conflictingFileName := filepath.Join(tempDir, ".ocfl.atomic.err")

	_ = os.WriteFile(conflictingFileName, []byte("I'm in the way!"), 0664)

	writer, err := fs.AtomicWrite(fileName)
	if err == nil {
		writer.Close()
		t.Errorf("should have thrown an error")
	}
}

func TestSafeWriteCreatesDirectories(t *testing.T) {
	tempDir := t.TempDir()
	fileName := filepath.Join(tempDir, "a", "b", "safe")

	content := "myContent"

	writer, err := fs.SafeWrite(fileName)
	if err != nil {
		t.Fatalf("could not open safe write %+v", err)
	}

	_, _ = io.WriteString(writer, content)
	if err := writer.Close(); err != nil {
		t.Errorf("writer failed close! %s", err)
	}

	readBytes, _ := os.ReadFile(fileName)
	if string(readBytes) != content {
		t.Errorf("did not read the expected content from safe write")
	}
}

func TestSafeWriteRollback(t *testing.T) {
	tempDir := t.TempDir()
	fileName := filepath.Join(tempDir, "safeRollback")

	writer, err := fs.SafeWrite(fileName)
	if err != nil {
		t.Fatalf("could not open safe write %+v", err)
	}

	_, _ = io.WriteString(writer, "something")
	if err := writer.Rollback(); err != nil {
		t.Errorf("error rolling back! %s", err)
	}

	if _, err := os.Stat(fileName); !os.IsNotExist(err) {
		t.Errorf("rollback did not remove the new file")
	}
}

func TestManagedWriteCloseError(t *testing.T) {
	badCloser := &fs.ManagedWrite{WriteCloser: &errcloser{}}
	if badCloser.Close() == nil {
		t.Errorf("should have thrown an error")
	}
}

type errcloser struct{}

func (*errcloser) Close() error {
	return fmt.Errorf("an error")
}
func (*errcloser) Write([]byte) (int, error) {
	return 0, nil
}
