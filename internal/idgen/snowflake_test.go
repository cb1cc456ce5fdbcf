package idgen

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const knownID ID = 1036758709298003968

var frozen = time.UnixMilli(1667252938342)

func frozenSnowflake(t *testing.T, worker, process int64) *Snowflake {
	t.Helper()
	sf, err := NewSnowflake(worker, process, WithClock(func() time.Time { return frozen }))
	require.NoError(t, err)
	return sf
}

func TestDecode(t *testing.T) {
	assert.Equal(t, int64(1667252938), Decode(knownID).Unix())
	assert.Equal(t, int64(1667252938342), knownID.Time().UnixMilli())
	assert.Equal(t, DiscordEpoch, Decode(0).UnixMilli())
}

func TestNextFrozenClock(t *testing.T) {
	sf := frozenSnowflake(t, 0, 0)

	assert.Equal(t, knownID, sf.Next())
	assert.Equal(t, knownID+1, sf.Next())
	assert.Equal(t, uint64(2), sf.Issued())
}

func TestNextStrictlyIncreasing(t *testing.T) {
	sf, err := NewSnowflake(3, 4)
	require.NoError(t, err)

	prev := sf.Next()
	for range 1000 {
		id := sf.Next()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestNextWrapsSequence(t *testing.T) {
	sf := frozenSnowflake(t, 3, 5)

	ids := sf.NextBatch(5000)
	require.Len(t, ids, 5000)
	for i, id := range ids {
		if i > 0 {
			require.Greater(t, id, ids[i-1])
		}
		res, err := sf.Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, int64(3), res.Worker, "id %d", i)
		require.Equal(t, int64(5), res.Process, "id %d", i)
	}

	assert.Equal(t, frozen.UnixMilli(), ids[4095].Time().UnixMilli())
	assert.Equal(t, frozen.UnixMilli()+1, ids[4096].Time().UnixMilli(), "an exhausted sequence moves to the next millisecond")
	last, err := sf.Parse(ids[4999].String())
	require.NoError(t, err)
	assert.Equal(t, int64(4999-4096), last.Sequence)
	assert.Equal(t, uint64(5000), sf.Issued())
}

func TestNextClockStepsBack(t *testing.T) {
	now := frozen
	sf, err := NewSnowflake(0, 0, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	first := sf.Next()
	now = now.Add(-time.Minute)
	second := sf.Next()
	assert.Equal(t, first+1, second)
}

func TestNextOffset(t *testing.T) {
	sf := frozenSnowflake(t, 0, 0)

	base := sf.Next()
	shifted := sf.NextOffset(10 * time.Second)
	assert.Equal(t, base.Time().Add(10*time.Second), shifted.Time())

	after := sf.Next()
	assert.Greater(t, after, shifted, "later IDs never fall behind an offset one")
}

func TestWorkerAndProcessBits(t *testing.T) {
	sf := frozenSnowflake(t, MaxWorker, 7)

	res, err := sf.Parse(sf.Next().String())
	require.NoError(t, err)
	assert.Equal(t, KindSnowflake, res.Kind)
	assert.Equal(t, int64(MaxWorker), res.Worker)
	assert.Equal(t, int64(7), res.Process)
	assert.Equal(t, int64(0), res.Sequence)
	assert.Equal(t, frozen.UnixMilli(), res.TimestampMs)
}

func TestNewSnowflakeRange(t *testing.T) {
	tests := []struct {
		name            string
		worker, process int64
	}{
		{"negative worker", -1, 0},
		{"worker too large", MaxWorker + 1, 0},
		{"negative process", 0, -1},
		{"process too large", 0, MaxProcess + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnowflake(tt.worker, tt.process)
			assert.Error(t, err)
		})
	}
}

func TestConcurrentNext(t *testing.T) {
	sf := frozenSnowflake(t, 1, 1)

	var (
		mu   sync.Mutex
		seen = make(map[ID]struct{})
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				id := sf.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestIDJSON(t *testing.T) {
	raw, err := json.Marshal(knownID)
	require.NoError(t, err)
	assert.Equal(t, `"1036758709298003968"`, string(raw))

	var fromString, fromNumber ID
	require.NoError(t, json.Unmarshal(raw, &fromString))
	require.NoError(t, json.Unmarshal([]byte(`1036758709298003968`), &fromNumber))
	assert.Equal(t, knownID, fromString)
	assert.Equal(t, knownID, fromNumber)

	var bad ID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("1036758709298003968")
	require.NoError(t, err)
	assert.Equal(t, knownID, id)
	assert.Equal(t, "1036758709298003968", id.String())

	_, err = ParseID("-1")
	assert.Error(t, err)
	_, err = ParseID("")
	assert.Error(t, err)
}

func TestSnowflakeGenerator(t *testing.T) {
	sf := frozenSnowflake(t, 0, 0)

	id, err := sf.Generate()
	require.NoError(t, err)
	assert.Equal(t, knownID.String(), id)

	batch, err := sf.GenerateBatch(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1036758709298003969", "1036758709298003970", "1036758709298003971"}, batch)

	_, err = sf.GenerateBatch(-1)
	assert.Error(t, err)

	valid, reason := sf.Validate(id)
	assert.True(t, valid)
	assert.Empty(t, reason)

	valid, _ = sf.Validate("4095")
	assert.False(t, valid, "no timestamp bits")
	valid, _ = sf.Validate("snowflake")
	assert.False(t, valid)

	_, err = sf.Parse("x")
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	sf := frozenSnowflake(t, 0, 0)

	h := sf.Hash(knownID)
	assert.Len(t, h, 40)
	assert.Equal(t, h, sf.Hash(knownID))
	assert.NotEqual(t, h, sf.Hash(knownID+1))
}

type constCoin bool

func (c constCoin) Bool() bool { return bool(c) }

func TestWithCoin(t *testing.T) {
	sf, err := NewSnowflake(0, 0, WithCoin(constCoin(true)))
	require.NoError(t, err)
	assert.True(t, sf.Bool())
}
