package serviceimpl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-attendance/domain/models"
	"face-attendance/pkg/embedding"
)

type fakeIdentityRepo struct {
	identities []models.Identity
	listErr    error
}

func (f *fakeIdentityRepo) List(context.Context) ([]models.Identity, error) {
	return f.identities, f.listErr
}

func (f *fakeIdentityRepo) GetByRegNo(context.Context, string) (*models.Identity, error) {
	return nil, nil
}

func (f *fakeIdentityRepo) Upsert(context.Context, *models.Identity) error { return nil }
func (f *fakeIdentityRepo) Delete(context.Context, string) error           { return nil }

func TestGalleryRefreshDecodesProfiles(t *testing.T) {
	repo := &fakeIdentityRepo{identities: []models.Identity{
		{RegNo: "S001", Name: "Alice", Embedding: embedding.Encode([]float32{1, 0, 0})},
		{RegNo: "S002", Name: "Bob", Embedding: embedding.Encode([]float32{0, 1, 0})},
	}}
	svc := NewGalleryService(repo, 3)

	require.NoError(t, svc.Refresh(context.Background()))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "S001", snapshot[0].RegNo)
	assert.Equal(t, []float32{1, 0, 0}, snapshot[0].Embedding)
	assert.True(t, svc.Available())
	assert.False(t, svc.LastRefresh().IsZero())
}

func TestGalleryRefreshSkipsUndecodableEmbedding(t *testing.T) {
	repo := &fakeIdentityRepo{identities: []models.Identity{
		{RegNo: "S001", Name: "Alice", Embedding: embedding.Encode([]float32{1, 0, 0})},
		{RegNo: "S002", Name: "Bob", Embedding: []byte{0x01, 0x02}},
		{RegNo: "S003", Name: "Carol", Embedding: embedding.Encode([]float32{0, 1})},
	}}
	svc := NewGalleryService(repo, 3)

	require.NoError(t, svc.Refresh(context.Background()))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "S001", snapshot[0].RegNo)
}

func TestGalleryLoadDegradesToEmpty(t *testing.T) {
	repo := &fakeIdentityRepo{listErr: errors.New("connection refused")}
	svc := NewGalleryService(repo, 3)

	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, 0, svc.Size())
	assert.False(t, svc.Available())
	assert.NotNil(t, svc.Snapshot())
}

func TestGalleryRefreshRecoversAvailability(t *testing.T) {
	repo := &fakeIdentityRepo{listErr: errors.New("connection refused")}
	svc := NewGalleryService(repo, 3)
	require.NoError(t, svc.Load(context.Background()))
	require.False(t, svc.Available())

	repo.listErr = nil
	repo.identities = []models.Identity{
		{RegNo: "S001", Name: "Alice", Embedding: embedding.Encode([]float32{1, 0, 0})},
	}
	require.NoError(t, svc.Refresh(context.Background()))

	assert.True(t, svc.Available())
	assert.Equal(t, 1, svc.Size())
}
