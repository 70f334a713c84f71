package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/preservio/ocfl/drivers/fs"
)

func TestNewDriver(t *testing.T) {
	scratch := t.TempDir()

	ocflRoot := filepath.Join(scratch, "ocflroot")
	if err := fs.InitRoot(ocflRoot); err != nil {
		t.Fatalf("could not initialize ocfl root %+v", err)
	}

	plainDir := filepath.Join(scratch, "plain")
	if err := os.Mkdir(plainDir, 0755); err != nil {
		t.Fatalf("could not create directory %+v", err)
	}

	cases := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{"noRoot", "", false},
		{"validRoot", ocflRoot, false},
		{"notARoot", plainDir, true},
		{"rootNoExist", filepath.Join(scratch, "DOES_NOT_EXIST"), true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, err := fs.NewDriver(fs.Config{Root: c.path})
			if (err != nil) != c.expectErr {
				t.Errorf("expected error: %t, got error: %t", c.expectErr, (err != nil))
			}
		})
	}
}
