package repositories

import (
	"context"
	"testing"

	"critterlog/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AnimalRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    AnimalRepository
	userID  uuid.UUID
	context context.Context
}

func (suite *AnimalRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewAnimalRepo(mock)
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *AnimalRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestAnimalRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AnimalRepoTestSuite))
}

func (suite *AnimalRepoTestSuite) newAnimal() *models.Animal {
	return &models.Animal{
		ID:      uuid.New(),
		UserID:  suite.userID,
		Name:    "Rosie",
		Species: "Grammostola rosea",
	}
}

func (suite *AnimalRepoTestSuite) TestCreateWithinLimit_UnderLimit() {
	animal := suite.newAnimal()

	suite.mock.ExpectExec(`INSERT INTO animals`).
		WithArgs(animal.ID, animal.UserID, animal.Name, animal.Species, animal.Category, animal.Sex, animal.Morph, animal.Breed, animal.DateOfBirth, animal.AcquisitionDate, animal.Notes, 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := suite.repo.CreateWithinLimit(suite.context, animal, 5)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), inserted)
}

// When the count subquery blocks the insert, zero rows are affected and the
// caller learns the limit was hit without a separate read.
func (suite *AnimalRepoTestSuite) TestCreateWithinLimit_AtLimit() {
	animal := suite.newAnimal()

	suite.mock.ExpectExec(`INSERT INTO animals`).
		WithArgs(animal.ID, animal.UserID, animal.Name, animal.Species, animal.Category, animal.Sex, animal.Morph, animal.Breed, animal.DateOfBirth, animal.AcquisitionDate, animal.Notes, 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := suite.repo.CreateWithinLimit(suite.context, animal, 5)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), inserted)
}

func (suite *AnimalRepoTestSuite) TestGetByID_NotFound() {
	animalID := uuid.New()

	suite.mock.ExpectQuery(`SELECT id, user_id, name, species`).
		WithArgs(animalID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, animalID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *AnimalRepoTestSuite) TestCountByUser() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM animals WHERE user_id = \$1`).
		WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := suite.repo.CountByUser(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, count)
}

func (suite *AnimalRepoTestSuite) TestDelete() {
	animalID := uuid.New()

	suite.mock.ExpectExec(`DELETE FROM animals WHERE user_id = \$1 AND id = \$2`).
		WithArgs(suite.userID, animalID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.userID, animalID)
	assert.NoError(suite.T(), err)
}
