package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/lst-etl/internal/raster"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, FamilyOptical, FamilyOf(BandRed))
	assert.Equal(t, FamilyOptical, FamilyOf(BandSWIR2))
	assert.Equal(t, FamilyThermal, FamilyOf(BandThermal))
	assert.Equal(t, FamilyOther, FamilyOf(BandQA))
	assert.Equal(t, FamilyOther, FamilyOf(BandNDVI))
}

func TestValidateBands(t *testing.T) {
	require.NoError(t, ValidateBands(RequiredBands))

	err := ValidateBands([]raster.BandName{BandRed, BandNIR})
	require.ErrorIs(t, err, ErrMissingBand)
	assert.Contains(t, err.Error(), "ST_B10")
	assert.Contains(t, err.Error(), "QA_PIXEL")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "empty_scene_set", ErrorKind(ErrEmptySceneSet))
	assert.Equal(t, "grid_mismatch", ErrorKind(raster.ErrGridMismatch))
	assert.Equal(t, "transient", ErrorKind(errors.New("timeout")))
	assert.True(t, IsDomainError(ErrDegenerateStatistics))
	assert.False(t, IsDomainError(ErrExportFailure))
}

func TestNewExportJob(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	aoi, err := NewAreaOfInterest(-99, 19, 1000)
	require.NoError(t, err)

	date := time.Date(2023, 7, 14, 17, 0, 0, 0, time.UTC)
	job := NewExportJob(nil, date, "exports", 30, aoi, 2)

	assert.Equal(t, "LST_2023-07-14", job.Description)
	assert.Equal(t, FormatGeoTIFF, job.Format)
	assert.Equal(t, time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC), job.Date)
	assert.Equal(t, fake.Now(), job.CreatedAt)
	assert.Equal(t, 30.0, job.Scale)
	assert.Equal(t, 2, job.SceneCount)
}
