package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted answers prompts from a fixed list, then reports end of input.
type scripted struct {
	answers []string
	prompts []string
	err     error
}

func (s *scripted) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scripted) Readline() (string, error) {
	if len(s.answers) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		answers []string
		want    bool
	}{
		{[]string{"y"}, true},
		{[]string{" YES "}, true},
		{[]string{""}, false},
		{[]string{"n"}, false},
		{[]string{"maybe", "y"}, true},
		{nil, false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := askYesNo(&scripted{answers: tt.answers}, &out, "Delete?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.answers)
	}

	var out bytes.Buffer
	_, _ = askYesNo(&scripted{answers: []string{"maybe"}}, &out, "Delete?")
	assert.Contains(t, out.String(), "invalid")

	got, err := askYesNo(&scripted{err: readline.ErrInterrupt}, &out, "Delete?")
	require.NoError(t, err)
	assert.False(t, got)

	boom := errors.New("boom")
	_, err = askYesNo(&scripted{err: boom}, &out, "Delete?")
	assert.Equal(t, boom, err)
}

func touch(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestDeleteDuplicatesOneByOne(t *testing.T) {
	paths := touch(t, t.TempDir(), 3)
	r := &scripted{answers: []string{"y", "n", "y"}}
	var out bytes.Buffer

	n, err := deleteDuplicates(r, &out, paths, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoFileExists(t, paths[0])
	assert.FileExists(t, paths[1])
	assert.NoFileExists(t, paths[2])
	assert.Len(t, r.prompts, 3)
	assert.Contains(t, r.prompts[0], paths[0])
}

func TestDeleteDuplicatesBulk(t *testing.T) {
	paths := touch(t, t.TempDir(), bulkThreshold+1)
	r := &scripted{answers: []string{"y"}}
	var out bytes.Buffer

	n, err := deleteDuplicates(r, &out, paths, false)
	require.NoError(t, err)
	assert.Equal(t, len(paths), n)
	require.Len(t, r.prompts, 1)
	assert.Contains(t, r.prompts[0], "Delete all 6 duplicate images")
	for _, p := range paths {
		assert.NoFileExists(t, p)
	}
}

func TestDeleteDuplicatesBulkDeclined(t *testing.T) {
	paths := touch(t, t.TempDir(), bulkThreshold+1)
	var out bytes.Buffer
	n, err := deleteDuplicates(&scripted{answers: []string{""}}, &out, paths, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestDeleteDuplicatesAssumeYes(t *testing.T) {
	dir := t.TempDir()
	paths := touch(t, dir, 2)
	paths = append(paths, filepath.Join(dir, "gone.png"))
	var out bytes.Buffer
	n, err := deleteDuplicates(nil, &out, paths, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out.String(), "Failed to delete")
}
