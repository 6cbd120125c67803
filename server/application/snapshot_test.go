package application

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"alpaca/server/domain"
)

func TestSnapshot_EncodeParse(t *testing.T) {
	g, clock := newTestGame(t)
	ctx := context.Background()
	g.Start()

	f := g.Field()
	f.SpawnEnemy(&Enemy{ID: f.NextID(), Kind: EnemyKindBoss, Position: domain.Position2D{X: 300, Y: -10}, Speed: 2.5})
	f.SpawnEffect(domain.Position2D{X: 5, Y: 6}, clock.Now())
	g.Fire()
	g.Step(ctx)

	want := g.Snapshot()
	if len(want.Bullets) != 1 || len(want.Enemies) != 1 || len(want.Effects) != 1 {
		t.Fatalf("unexpected snapshot contents: %+v", want)
	}
	if want.Effects[0].RemainingMs != 500 {
		t.Errorf("RemainingMs = %d, want 500", want.Effects[0].RemainingMs)
	}

	got, err := ParseSnapshot(want.Encode())
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseSnapshot_Invalid(t *testing.T) {
	g, _ := newTestGame(t)
	g.Start()
	g.Fire()
	data := g.Snapshot().Encode()

	if _, err := ParseSnapshot(data[:len(data)-1]); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("truncated: expected ErrInvalidSnapshot, got %v", err)
	}
	if _, err := ParseSnapshot(append(data, 0)); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("trailing: expected ErrInvalidSnapshot, got %v", err)
	}
	if _, err := ParseSnapshot(nil); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("empty: expected ErrInvalidSnapshot, got %v", err)
	}

	nan := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(nan[10:14], math.Float32bits(float32(math.NaN())))
	if _, err := ParseSnapshot(nan); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("NaN: expected ErrInvalidSnapshot, got %v", err)
	}

	huge := append([]byte(nil), data[:snapshotFixedSize]...)
	huge = binary.LittleEndian.AppendUint16(huge, 0xFFFF)
	if _, err := ParseSnapshot(huge); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("huge count: expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestEncodeSnapshotMessage(t *testing.T) {
	g, _ := newTestGame(t)
	g.Start()
	sessionID := domain.NewSessionID()

	data := EncodeSnapshotMessage(sessionID, 9, g.Snapshot())

	header, payloadHeader, body, err := domain.ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if payloadHeader.DataType != domain.DataTypeSnapshot {
		t.Errorf("DataType = %d, want snapshot", payloadHeader.DataType)
	}
	if header.Seq != 9 || domain.SessionIDFromBytes(header.SessionID) != sessionID {
		t.Errorf("header = %+v", header)
	}
	s, err := ParseSnapshot(body)
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}
	if s.State != StateActive || s.Health != 100 {
		t.Errorf("snapshot = %+v", s)
	}
}
