//go:build integration
// +build integration

package workers_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pviana/stockroom-be/internal/adapters/storage"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/workers"
	"github.com/pviana/stockroom-be/test/helpers"
)

// recordingStorage fakes the object store: List serves a fixed key set and
// Delete records what the sweep removed.
type recordingStorage struct {
	keys    []string
	deleted []string
}

func (r *recordingStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (r *recordingStorage) Delete(ctx context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return nil
}

func (r *recordingStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return r.keys, nil
}

func (r *recordingStorage) Exists(ctx context.Context, key string) (bool, error) {
	for _, k := range r.keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

type CleanupProcessorSuite struct {
	suite.Suite
	testDB *helpers.TestDB
	ctx    context.Context
}

func (s *CleanupProcessorSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.ctx = context.Background()
}

func (s *CleanupProcessorSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *CleanupProcessorSuite) TestCleanupOrphanImages() {
	referenced := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ImageURL = "https://cdn.example.com/uploads/keep.png"
	})
	referenced.PrepareForStorage()
	unimaged := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Name = "Bare Widget"
		p.SKU = "WID-0002"
		p.ImageURL = ""
	})
	unimaged.PrepareForStorage()
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []domain.Product{*referenced, *unimaged})

	st := &recordingStorage{keys: []string{
		"uploads/keep.png",
		"uploads/orphan.png",
	}}

	processor := workers.NewCleanupProcessor(s.testDB.Database, st, helpers.TestLogger())
	err := processor.CleanupOrphanImages(s.ctx, workers.NewImageCleanupTask())
	s.NoError(err)

	s.Equal([]string{"uploads/orphan.png"}, st.deleted)
}

func (s *CleanupProcessorSuite) TestCleanupKeepsEverythingWhenAllReferenced() {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ImageURL = "https://cdn.example.com/uploads/lamp.png"
	})
	product.PrepareForStorage()
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []domain.Product{*product})

	st := &recordingStorage{keys: []string{"uploads/lamp.png"}}

	processor := workers.NewCleanupProcessor(s.testDB.Database, st, helpers.TestLogger())
	err := processor.CleanupOrphanImages(s.ctx, workers.NewImageCleanupTask())
	s.NoError(err)

	s.Empty(st.deleted)
}

// The fake must keep satisfying the storage interface the processor consumes.
var _ storage.StorageClient = (*recordingStorage)(nil)

func TestCleanupProcessorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(CleanupProcessorSuite))
}
