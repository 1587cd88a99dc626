package database

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-dcs/dcs/internal/database"
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/sample/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	sDB, err := database.NewFromEnv(context.Background(), &database.Config{
		FileName: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() {
		_ = sDB.Close(context.Background())
	})
	return New(sDB)
}

func newSample(streamID string, label int) model.Sample {
	return model.NewSample(streamID, geom.Point{float64(label)}, label, time.Now(), nil)
}

func TestAppendManyRegistersEveryStream(t *testing.T) {
	db := newTestDB(t)
	err := db.AppendMany(context.Background(), []model.Sample{
		newSample("stream-a", 0),
		newSample("stream-b", 1),
		newSample("stream-b", 0),
	})
	if err != nil {
		t.Fatalf("appending samples: %v", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("fetching keys: %v", err)
	}
	sort.Strings(keys)
	expected := []string{"stream-a", "stream-b"}
	if len(keys) != len(expected) {
		t.Fatalf("stream keys got: %v, expected: %v", keys, expected)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Fatalf("stream keys got: %v, expected: %v", keys, expected)
		}
	}

	samples, err := db.FindAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetching all samples: %v", err)
	}
	if len(samples) != 3 {
		t.Errorf("samples found got: %d, expected: 3", len(samples))
	}
}

func TestAppendManyFindByStream(t *testing.T) {
	db := newTestDB(t)
	err := db.AppendMany(context.Background(), []model.Sample{
		newSample("stream-a", 0),
		newSample("stream-b", 1),
	})
	if err != nil {
		t.Fatalf("appending samples: %v", err)
	}

	samples, err := db.FindByStream("stream-b", nil)
	if err != nil {
		t.Fatalf("fetching by stream: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples of stream-b got: %d, expected: 1", len(samples))
	}
	if samples[0].ClassLabel != 1 {
		t.Errorf("sample label got: %d, expected: 1", samples[0].ClassLabel)
	}

	length, err := db.CountByStream("stream-b")
	if err != nil {
		t.Fatalf("counting by stream: %v", err)
	}
	if length != 1 {
		t.Errorf("count of stream-b got: %d, expected: 1", length)
	}
}
