package experience

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	d := 1200.0
	return []Record{
		{
			ExperienceID: MakeExperienceID("s1", "R1", "r1", ActionBet),
			EventDate:    "2025-03-01",
			RaceID:       "R1",
			RunnerID:     "r1",
			SelectionID:  101,
			StrategyID:   "s1",
			Params:       `{"margin":1.05}`,
			Action:       ActionBet,
			Stake:        1.0,
			Profit:       4.0,
			ModelProb:    0.25,
			ImpliedProb:  0.2,
			Edge:         1.19,
			WinOdds:      5.0,
			WonFlag:      1,
			Track:        "Flemington",
			StateCode:    "VIC",
			Distance:     &d,
			RacingType:   "Thoroughbred",
			RaceType:     "Handicap",
			ContextHash:  MakeContextHash(map[string]string{"track": "Flemington"}),
		},
		{
			ExperienceID: MakeExperienceID("s1", "R2", "r2", ActionBet),
			EventDate:    "2025-03-02",
			RaceID:       "R2",
			RunnerID:     "r2",
			SelectionID:  102,
			StrategyID:   "s1",
			Params:       `{"margin":1.05}`,
			Action:       ActionBet,
			Stake:        1.0,
			Profit:       -1.0,
			ModelProb:    0.4,
			ImpliedProb:  0.3,
			Edge:         0.5,
			WinOdds:      3.3,
			WonFlag:      0,
			Track:        "Randwick",
			StateCode:    "NSW",
			RacingType:   "Thoroughbred",
			RaceType:     "Maiden",
			ContextHash:  MakeContextHash(map[string]string{"track": "Randwick"}),
		},
	}
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(WriterConfig{
		OutputDir:       t.TempDir(),
		FilenamePrefix:  "experiences",
		PartitionByDate: true,
	}, nil)
	require.NoError(t, err)
	w.now = func() time.Time {
		return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	}
	return w
}

func TestWriteParquetRoundTrip(t *testing.T) {
	w := newTestWriter(t)
	records := sampleRecords()

	path, err := w.Write(records, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".parquet"))

	readBack, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, readBack, 2)

	assert.Equal(t, records[0].ExperienceID, readBack[0].ExperienceID)
	assert.Equal(t, records[0].WonFlag, readBack[0].WonFlag)
	assert.Equal(t, records[0].Profit, readBack[0].Profit)
	require.NotNil(t, readBack[0].Distance)
	assert.Equal(t, 1200.0, *readBack[0].Distance)
	assert.Nil(t, readBack[1].Distance)
	assert.Equal(t, records[1].ContextHash, readBack[1].ContextHash)
}

func TestWriteFilenameCarriesDateRange(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.Write(sampleRecords(), "")
	require.NoError(t, err)
	assert.Contains(t, path, "experiences_20250301_20250302_20250305T120000Z")
}

func TestWriteSingleDateSuffix(t *testing.T) {
	w := newTestWriter(t)
	records := sampleRecords()[:1]

	path, err := w.Write(records, "")
	require.NoError(t, err)
	assert.Contains(t, path, "experiences_20250301_")
}

func TestWriteLabelOverridesPrefix(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.Write(sampleRecords(), "autumn-carnival")
	require.NoError(t, err)
	assert.Contains(t, path, "autumn-carnival_")
}

func TestWriteRejectsEmptyInput(t *testing.T) {
	w := newTestWriter(t)
	_, err := w.Write(nil, "")
	assert.Error(t, err)
}

func TestCSVGzRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()
	path := dir + "/experiences.csv.gz"

	require.NoError(t, writeCSVGz(path, records))

	readBack, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, readBack, 2)
	assert.Equal(t, records[0].ExperienceID, readBack[0].ExperienceID)
	assert.Equal(t, records[1].WonFlag, readBack[1].WonFlag)
	require.NotNil(t, readBack[0].Distance)
	assert.Equal(t, 1200.0, *readBack[0].Distance)
	assert.Nil(t, readBack[1].Distance)
}
