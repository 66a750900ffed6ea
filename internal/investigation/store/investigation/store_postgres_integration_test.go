//go:build integration

package investigation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fraudlens/internal/investigation/models"
	"fraudlens/internal/investigation/store/investigation"
	"fraudlens/pkg/platform/sentinel"
	"fraudlens/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *investigation.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), investigation.Schema))
	s.store = investigation.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "investigations"))
}

func (s *PostgresStoreSuite) newInvestigation(owner string) *models.Investigation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Investigation{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Stage:   models.StageInProgress,
		Status:  "analyzing",
		Settings: models.Settings{
			Entities:      []string{"acct-42"},
			TimeRangeDays: 30,
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	inv := s.newInvestigation("analyst-7")
	s.Require().NoError(s.store.Create(ctx, inv))

	got, err := s.store.Get(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.ID, got.ID)
	s.Equal(models.StageInProgress, got.Stage)
	s.Equal([]string{"acct-42"}, got.Settings.Entities)
	s.Equal(int64(1), got.Version)
	s.Nil(got.Results)
}

func (s *PostgresStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(context.Background(), uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateBumpsVersionAndPersistsProgress() {
	ctx := context.Background()
	inv := s.newInvestigation("analyst-7")
	s.Require().NoError(s.store.Create(ctx, inv))

	phase := "anomaly_detection"
	updated, err := s.store.Update(ctx, inv.ID, 1, models.Patch{
		CurrentPhase: &phase,
		ToolExecutions: []models.ToolExecution{
			{ID: "te-1", ToolName: "geo_lookup", Domain: "location", Status: models.ToolCompleted},
		},
	})
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	got, err := s.store.Get(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
	s.Equal("anomaly_detection", got.Progress.CurrentPhase)
	s.Require().Len(got.Progress.ToolExecutions, 1)
	s.Equal(models.ToolCompleted, got.Progress.ToolExecutions[0].Status)
	s.Equal(100.0, got.Progress.PercentComplete)
}

func (s *PostgresStoreSuite) TestUpdateStaleVersion() {
	ctx := context.Background()
	inv := s.newInvestigation("analyst-7")
	s.Require().NoError(s.store.Create(ctx, inv))

	status := "first"
	_, err := s.store.Update(ctx, inv.ID, 1, models.Patch{Status: &status})
	s.Require().NoError(err)

	_, err = s.store.Update(ctx, inv.ID, 1, models.Patch{Status: &status})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	var conflict *investigation.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(int64(2), conflict.CurrentVersion)
	s.Equal(int64(1), conflict.ProvidedVersion)
}

func (s *PostgresStoreSuite) TestConcurrentUpdatesConverge() {
	ctx := context.Background()
	inv := s.newInvestigation("analyst-7")
	s.Require().NoError(s.store.Create(ctx, inv))

	update := func(exec models.ToolExecution) error {
		current := int64(1)
		for attempt := 0; attempt < 3; attempt++ {
			_, err := s.store.Update(ctx, inv.ID, current, models.Patch{
				ToolExecutions: []models.ToolExecution{exec},
			})
			if err == nil {
				return nil
			}
			if !errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			fresh, err := s.store.Get(ctx, inv.ID)
			if err != nil {
				return err
			}
			current = fresh.Version
		}
		return errors.New("retries exhausted")
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	execs := []models.ToolExecution{
		{ID: "te-location", ToolName: "geo_lookup", Domain: "location", Status: models.ToolCompleted},
		{ID: "te-device", ToolName: "device_scan", Domain: "device", Status: models.ToolCompleted},
	}
	for i, exec := range execs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = update(exec)
		}()
	}
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])

	final, err := s.store.Get(ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), final.Version)

	ids := make([]string, 0, len(final.Progress.ToolExecutions))
	for _, exec := range final.Progress.ToolExecutions {
		ids = append(ids, exec.ID)
	}
	s.ElementsMatch([]string{"te-location", "te-device"}, ids)
}

func (s *PostgresStoreSuite) TestListByOwner() {
	ctx := context.Background()
	mine := s.newInvestigation("analyst-7")
	theirs := s.newInvestigation("analyst-9")
	s.Require().NoError(s.store.Create(ctx, mine))
	s.Require().NoError(s.store.Create(ctx, theirs))

	got, err := s.store.List(ctx, "analyst-7")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(mine.ID, got[0].ID)
}
