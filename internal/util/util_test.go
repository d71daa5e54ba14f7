package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandUser(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)
	tests := []struct {
		in   string
		want string
	}{
		{"~", usr.HomeDir},
		{"~/reports", filepath.Join(usr.HomeDir, "reports")},
		{"/tmp/~x", "/tmp/~x"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandUser(tt.in))
		})
	}
}

func TestAbsPath(t *testing.T) {
	path, err := AbsPath("out")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "out", filepath.Base(path))
}

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dump.yaml")
	require.NoError(t, os.WriteFile(file, []byte("version: 1\n"), 0644))

	exists, err := FileExists(file)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = FileExists(dir)
	assert.Error(t, err)
	exists, err = FileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = DirectoryExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = DirectoryExists(file)
	assert.Error(t, err)
	exists, err = DirectoryExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
	assert.True(t, FileOrDirectoryExists(dir))
	// second call is a no-op
	require.NoError(t, CreateDirectoryIfNotExists(dir, 0755))
}

func TestCreateFlatTGZ(t *testing.T) {
	// Create a temporary directory for test files and tarball
	tempDir := t.TempDir()

	// Create some test files with known content
	files := []string{}
	contents := []string{"hello world", "foo bar", "baz qux"}
	for i, content := range contents {
		filePath := filepath.Join(tempDir, fmt.Sprintf("file%d.txt", i))
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
		files = append(files, filePath)
	}

	// Path for the tarball
	tarballPath := filepath.Join(tempDir, "test.tar.gz")

	// Call CreateFlatTGZ
	if err := CreateFlatTGZ(files, tarballPath); err != nil {
		t.Fatalf("CreateFlatTGZ failed: %v", err)
	}

	// Open and read the tarball, check contents
	tarball, err := os.Open(tarballPath)
	if err != nil {
		t.Fatalf("failed to open tarball: %v", err)
	}
	defer tarball.Close()

	gzipReader, err := gzip.NewReader(tarball)
	if err != nil {
		t.Fatalf("failed to create gzip reader: %v", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	foundFiles := map[string]string{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("error reading tarball: %v", err)
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			t.Fatalf("failed to read file from tarball: %v", err)
		}
		foundFiles[header.Name] = string(data)
	}

	// Check that all files are present and contents match
	for i, content := range contents {
		base := filepath.Base(files[i])
		got, ok := foundFiles[base]
		if !ok {
			t.Errorf("file %s not found in tarball", base)
		}
		if got != content {
			t.Errorf("file %s content mismatch: got %q, want %q", base, got, content)
		}
	}

	// Test error when file does not exist
	badTarball := filepath.Join(tempDir, "bad.tar.gz")
	err = CreateFlatTGZ([]string{filepath.Join(tempDir, "doesnotexist.txt")}, badTarball)
	if err == nil {
		t.Errorf("expected error for non-existent file, got nil")
	}

	// Test error when tarball path is invalid
	err = CreateFlatTGZ(files, "/invalid/path/to/tarball.tar.gz")
	if err == nil {
		t.Errorf("expected error for invalid tarball path, got nil")
	}
}
