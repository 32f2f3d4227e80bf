package vfs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
	"github.com/dmitrijs2005/clogkeeper/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	e, err := cryptox.NewEngine(cryptox.CipherAES256GCM)
	require.NoError(t, err)
	return New(e)
}

func names(nodes []Node) []string {
	res := make([]string, len(nodes))
	for i, n := range nodes {
		res[i] = n.Name
	}
	return res
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "plain", in: "notes.md"},
		{name: "spaces and unicode", in: "мои заметки"},
		{name: "empty", in: "", wantErr: true},
		{name: "dot", in: ".", wantErr: true},
		{name: "dotdot", in: "..", wantErr: true},
		{name: "slash", in: "a/b", wantErr: true},
		{name: "nul", in: "a\x00b", wantErr: true},
		{name: "too long", in: strings.Repeat("x", 256), wantErr: true},
		{name: "max length", in: strings.Repeat("x", 255)},
		{name: "invalid utf8", in: "\xff\xfe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTree_CreateNameUniqueness(t *testing.T) {
	tr := newTestTree(t)

	_, err := tr.CreateFolder(RootID, "personal")
	require.NoError(t, err)

	_, err = tr.CreateFolder(RootID, "personal")
	assert.ErrorIs(t, err, common.ErrNameConflict)

	_, err = tr.CreateFile(RootID, "personal")
	assert.ErrorIs(t, err, common.ErrNameConflict)

	id, err := tr.CreateFile(RootID, "todo.md")
	require.NoError(t, err)

	_, err = tr.CreateFolder(id, "sub")
	assert.ErrorIs(t, err, common.ErrNotAFolder)

	_, err = tr.CreateFolder(NodeID(999), "x")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = tr.CreateFolder(RootID, "a/b")
	assert.ErrorIs(t, err, common.ErrInvalidName)

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 1, tr.Slots().Len())
}

func TestTree_Rename(t *testing.T) {
	tr := newTestTree(t)
	a, err := tr.CreateFolder(RootID, "a")
	require.NoError(t, err)
	_, err = tr.CreateFolder(RootID, "b")
	require.NoError(t, err)

	assert.ErrorIs(t, tr.Rename(a, "b"), common.ErrNameConflict)
	assert.ErrorIs(t, tr.Rename(a, ""), common.ErrInvalidName)
	assert.ErrorIs(t, tr.Rename(RootID, "root"), common.ErrInvalidMove)
	assert.NoError(t, tr.Rename(a, "a"))

	require.NoError(t, tr.Rename(a, "c"))
	kids, err := tr.Children(RootID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(kids))

	_, err = tr.Lookup("/a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTree_MoveRejectsCycles(t *testing.T) {
	tr := newTestTree(t)
	a, _ := tr.CreateFolder(RootID, "a")
	b, _ := tr.CreateFolder(a, "b")
	c, _ := tr.CreateFolder(b, "c")

	tests := []struct {
		name   string
		id     NodeID
		target NodeID
	}{
		{name: "into itself", id: a, target: a},
		{name: "into child", id: a, target: b},
		{name: "into grandchild", id: a, target: c},
		{name: "root", id: RootID, target: a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tr.Move(tt.id, tt.target), common.ErrInvalidMove)
		})
	}

	p, err := tr.Path(c)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", p)

	require.NoError(t, tr.Move(c, RootID))
	p, err = tr.Path(c)
	require.NoError(t, err)
	assert.Equal(t, "/c", p)

	// a subtree may move sideways into an unrelated folder
	require.NoError(t, tr.Move(b, c))
	p, err = tr.Path(b)
	require.NoError(t, err)
	assert.Equal(t, "/c/b", p)
	assert.ErrorIs(t, tr.Move(c, b), common.ErrInvalidMove)
}

func TestTree_MoveConflictAndTargets(t *testing.T) {
	tr := newTestTree(t)
	a, _ := tr.CreateFolder(RootID, "a")
	_, _ = tr.CreateFolder(a, "x")
	x, _ := tr.CreateFolder(RootID, "x")
	f, _ := tr.CreateFile(RootID, "f")

	assert.ErrorIs(t, tr.Move(x, a), common.ErrNameConflict)
	assert.ErrorIs(t, tr.Move(a, f), common.ErrNotAFolder)
	assert.ErrorIs(t, tr.Move(NodeID(42), a), common.ErrNotFound)
	assert.NoError(t, tr.Move(x, RootID))

	kids, _ := tr.Children(RootID)
	assert.Equal(t, []string{"a", "f", "x"}, names(kids))
}

func TestTree_DeleteReleasesSlots(t *testing.T) {
	tr := newTestTree(t)
	a, _ := tr.CreateFolder(RootID, "a")
	b, _ := tr.CreateFolder(a, "b")
	_, err := tr.CreateFile(a, "one")
	require.NoError(t, err)
	two, err := tr.CreateFile(b, "two")
	require.NoError(t, err)
	keep, err := tr.CreateFile(RootID, "keep")
	require.NoError(t, err)
	require.NoError(t, tr.WriteFile(keep, []byte("still here")))
	assert.Equal(t, 3, tr.Slots().Len())

	assert.ErrorIs(t, tr.Delete(RootID), common.ErrInvalidMove)

	require.NoError(t, tr.Delete(a))
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 1, tr.Slots().Len())

	_, err = tr.Stat(two)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, tr.Delete(a), common.ErrNotFound)

	got, err := tr.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "still here", string(got))
}

func TestTree_ReadWriteFile(t *testing.T) {
	tr := newTestTree(t)
	dir, _ := tr.CreateFolder(RootID, "personal")
	f, err := tr.CreateFile(dir, "todo.md")
	require.NoError(t, err)

	got, err := tr.ReadFile(f)
	require.NoError(t, err)
	assert.Empty(t, got)

	firstIDs := tr.Slots().IDs()
	require.NoError(t, tr.WriteFile(f, []byte("buy milk")))
	secondIDs := tr.Slots().IDs()
	require.Len(t, secondIDs, 1)
	assert.NotEqual(t, firstIDs, secondIDs)

	got, err = tr.ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", string(got))

	st, err := tr.Stat(f)
	require.NoError(t, err)
	assert.Equal(t, int64(8), st.Size)
	assert.True(t, st.IsFile())

	_, err = tr.ReadFile(dir)
	assert.ErrorIs(t, err, common.ErrNotAFile)
	assert.ErrorIs(t, tr.WriteFile(dir, nil), common.ErrNotAFile)
}

func TestTree_ReadFileDetectsTampering(t *testing.T) {
	tr := newTestTree(t)
	f, _ := tr.CreateFile(RootID, "secret")
	require.NoError(t, tr.WriteFile(f, []byte("payload")))

	id := tr.Slots().IDs()[0]
	slot, _ := tr.Slots().Get(id)
	ct := append([]byte(nil), slot.Ciphertext...)
	ct[0] ^= 0x01
	tr.Slots().Put(id, cryptox.Sealed{Nonce: slot.Nonce, Ciphertext: ct})

	_, err := tr.ReadFile(f)
	assert.Equal(t, common.ErrAuthentication, err)

	tr.Slots().Release(id)
	_, err = tr.ReadFile(f)
	assert.Equal(t, common.ErrAuthentication, err)
}

func TestTree_ChildrenWalkResolve(t *testing.T) {
	tr := newTestTree(t)
	z, _ := tr.CreateFolder(RootID, "zeta")
	_, _ = tr.CreateFolder(RootID, "alpha")
	_, _ = tr.CreateFile(z, "b.txt")
	_, _ = tr.CreateFile(z, "a.txt")

	var visited []string
	require.NoError(t, tr.Walk(func(p string, _ Node) error {
		visited = append(visited, p)
		return nil
	}))
	assert.Equal(t, []string{"/", "/alpha", "/zeta", "/zeta/a.txt", "/zeta/b.txt"}, visited)

	id, err := tr.Resolve(z, "../alpha")
	require.NoError(t, err)
	p, _ := tr.Path(id)
	assert.Equal(t, "/alpha", p)

	id, err = tr.Resolve(z, "/../zeta/./a.txt")
	require.NoError(t, err)
	p, _ = tr.Path(id)
	assert.Equal(t, "/zeta/a.txt", p)

	_, err = tr.Resolve(z, "a.txt/x")
	assert.ErrorIs(t, err, common.ErrNotAFolder)

	root, err := tr.Lookup("/")
	require.NoError(t, err)
	assert.Equal(t, RootID, root)

	stop := errors.New("stop")
	assert.ErrorIs(t, tr.Walk(func(string, Node) error { return stop }), stop)
}

func TestTree_Clock(t *testing.T) {
	e, err := cryptox.NewEngine(cryptox.CipherChaCha20Poly1305)
	require.NoError(t, err)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := New(e, WithClock(func() time.Time { return ts }))

	id, err := tr.CreateFolder(RootID, "01-03-2024")
	require.NoError(t, err)
	st, _ := tr.Stat(id)
	assert.Equal(t, ts, st.CreatedAt)
	assert.Equal(t, ts, st.ModifiedAt)
}

// recordingEngine remembers every (key, nonce) pair it seals with.
type recordingEngine struct {
	cryptox.Engine
	pairs map[string]int
}

func (r *recordingEngine) record(key, nonce []byte) {
	r.pairs[fmt.Sprintf("%x/%x", key, nonce)]++
}

func (r *recordingEngine) SealFresh(plaintext, ad []byte) ([]byte, cryptox.Sealed, error) {
	key, s, err := r.Engine.SealFresh(plaintext, ad)
	if err == nil {
		r.record(key, s.Nonce)
	}
	return key, s, err
}

func TestTree_KeyNonceUniqueness(t *testing.T) {
	base, err := cryptox.NewEngine(cryptox.CipherAES256GCM)
	require.NoError(t, err)
	rec := &recordingEngine{Engine: base, pairs: make(map[string]int)}
	tr := New(rec)

	const files, writes = 5, 20
	ids := make([]NodeID, 0, files)
	for i := 0; i < files; i++ {
		id, err := tr.CreateFile(RootID, fmt.Sprintf("f%d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	for w := 0; w < writes; w++ {
		for _, id := range ids {
			// same plaintext every time on purpose
			require.NoError(t, tr.WriteFile(id, []byte("same content")))
		}
	}

	assert.Len(t, rec.pairs, files+files*writes)
	for pair, n := range rec.pairs {
		assert.Equal(t, 1, n, "pair %s used more than once", pair)
	}
	assert.Equal(t, files, tr.Slots().Len())
}
