package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, 5*time.Minute, "", nil)

	want := sampleResult("SW9 8JH")
	want.GeneratedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet(DefaultPrefix + "SW98JH").SetVal(string(data))

	got, ok := store.Get(context.Background(), "sw9 8jh")
	require.True(t, ok)
	assert.Equal(t, want.Postcode, got.Postcode)
	assert.Equal(t, want.ViabilityScore, got.ViabilityScore)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, 5*time.Minute, "test:", nil)

	mock.ExpectGet("test:SW98JH").RedisNil()

	_, ok := store.Get(context.Background(), "SW9 8JH")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, 5*time.Minute, "test:", nil)

	mock.ExpectGet("test:SW98JH").SetErr(errors.New("connection refused"))

	_, ok := store.Get(context.Background(), "SW9 8JH")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetCorruptEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, 5*time.Minute, "test:", nil)

	mock.ExpectGet("test:SW98JH").SetVal("{not json")

	_, ok := store.Get(context.Background(), "SW9 8JH")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Put(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, 300*time.Second, "test:", nil)

	r := sampleResult("SW9 8JH")
	data, err := json.Marshal(r)
	require.NoError(t, err)

	mock.ExpectSet("test:SW98JH", string(data), 300*time.Second).SetVal("OK")

	store.Put(context.Background(), "SW9 8JH", r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_PutErrorSwallowed(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, time.Minute, "test:", nil)

	r := sampleResult("SW9 8JH")
	data, err := json.Marshal(r)
	require.NoError(t, err)

	mock.ExpectSet("test:SW98JH", string(data), time.Minute).SetErr(errors.New("READONLY"))

	assert.NotPanics(t, func() {
		store.Put(context.Background(), "SW9 8JH", r)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_PutNil(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db, time.Minute, "test:", nil)

	store.Put(context.Background(), "SW9 8JH", nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}
