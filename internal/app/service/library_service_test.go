package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

func TestSaveThenDecodeBook(t *testing.T) {
	repo := &memSaved{}
	lib := NewLibraryService(repo)
	book := domain.Book{ID: "b1", Title: "Dune", Authors: []string{"Frank Herbert"}, PageCount: 412}

	saved, err := lib.Save(context.Background(), "u1", book)
	require.NoError(t, err)
	assert.Equal(t, "book:b1", saved.ItemID())
	assert.Equal(t, "Dune", saved.Label())

	_, err = lib.Save(context.Background(), "u1", book)
	assert.ErrorIs(t, err, domain.ErrAlreadySaved)

	list, err := lib.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	it, err := Decode(list[0])
	require.NoError(t, err)
	assert.Equal(t, book, it)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(domain.SavedItem{ItemKey: "x", Type: "podcast", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestDecodeCorruptPayload(t *testing.T) {
	_, err := Decode(domain.SavedItem{ItemKey: "x", Type: domain.KindTrack, Payload: []byte(`{`)})
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	repo := &memSaved{}
	lib := NewLibraryService(repo)
	saved, err := lib.Save(context.Background(), "u1", domain.Track{ID: "t1", Name: "One"})
	require.NoError(t, err)

	require.NoError(t, lib.Remove(context.Background(), "u1", saved))
	assert.ErrorIs(t, lib.Remove(context.Background(), "u1", saved), domain.ErrNotFound)
}
