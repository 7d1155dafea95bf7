package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/publisher"
)

var testClock = func() time.Time {
	return time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil, WithClock(testClock))
	require.NoError(t, err)
	return s
}

func publishTestBlock(t *testing.T, content string) *block.Block {
	t.Helper()
	p := publisher.New(publisher.WithClock(testClock))
	d, err := p.CreateDraft(content, publisher.DraftOptions{})
	require.NoError(t, err)
	b, err := p.Publish(d)
	require.NoError(t, err)
	return b
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestPath_FanOut(t *testing.T) {
	s := newTestStore(t)
	b := publishTestBlock(t, "fan-out check")

	path, err := s.Path(b.ID)
	require.NoError(t, err)

	hash := strings.TrimPrefix(b.ID, "sha256:")
	want := filepath.Join(s.Dir(), hash[:2], hash+Ext)
	assert.Equal(t, want, path)
}

func TestPath_RejectsBadID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Path("sha256:nope")
	assert.Error(t, err)
}

func TestPut_Get_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "round trip content")

	require.NoError(t, s.Put(ctx, b))

	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Content, got.Content)
	assert.Equal(t, b.Meta, got.Meta)

	exists, err := s.Exists(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPut_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "stored twice")

	require.NoError(t, s.Put(ctx, b))
	require.NoError(t, s.Put(ctx, b))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPut_RejectsInvalidBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Put(ctx, &block.Block{})
	assert.Error(t, err)
}

func TestPut_RejectsTamperedBlock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "original")

	tampered := *b
	tampered.Content = "edited after publish"

	err := s.Put(ctx, &tampered)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	b := publishTestBlock(t, "never stored")

	_, err := s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_AltExtension(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "alternate extension")

	require.NoError(t, s.Put(ctx, b))

	// Rename the stored file to the explicit .tref.json form.
	path, err := s.Path(b.ID)
	require.NoError(t, err)
	require.NoError(t, os.Rename(path, path+".json"))

	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

// A hand-edited block file must surface as an integrity failure, not a
// structural one: the file still parses, the hash just no longer matches.
func TestGet_DetectsTampering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "soon to be tampered")

	require.NoError(t, s.Put(ctx, b))

	path, err := s.Path(b.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	edited := strings.Replace(string(data), "soon to be tampered", "tampered content", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	_, err = s.Get(b.ID)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestList_Order(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []string
	for i := range 3 {
		b := publishTestBlock(t, fmt.Sprintf("content %d", i))
		require.NoError(t, s.Put(ctx, b))
		ids = append(ids, b.ID)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
		assert.Equal(t, "2025-01-06T12:00:00Z", e.Added)
	}
}

func TestIndex_OnDiskFormat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	b := publishTestBlock(t, "index format")

	require.NoError(t, s.Put(ctx, b))

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "index.json"))
	require.NoError(t, err)

	var idx Index
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Equal(t, 1, idx.V)
	require.Len(t, idx.Blocks, 1)
	assert.Equal(t, b.ID, idx.Blocks[0].ID)
}

// Concurrent publishers must not lose index entries: the exists-check and
// append are one critical section under the registry lock.
func TestPut_ConcurrentPublishers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 16
	blocks := make([]*block.Block, n)
	for i := range blocks {
		blocks[i] = publishTestBlock(t, fmt.Sprintf("concurrent block %d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range blocks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Put(ctx, blocks[i])
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "put %d", i)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/vnd.tref+json", MIMEType)
}
