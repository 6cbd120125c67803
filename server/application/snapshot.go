package application

import (
	"encoding/binary"
	"errors"
	"math"

	"alpaca/server/domain"
	"alpaca/utils"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot payload")

const (
	snapshotFixedSize = 4 + 1 + 1 + 4 + domain.Position2DSize + 2
	bulletViewSize    = 4 + domain.Position2DSize
	enemyViewSize     = 4 + 1 + domain.Position2DSize + 4
	effectViewSize    = 4 + domain.Position2DSize + 2
)

type BulletView struct {
	ID       EntityID
	Position domain.Position2D
}

type EnemyView struct {
	ID       EntityID
	Kind     EnemyKind
	Position domain.Position2D
	Speed    float32
}

type EffectView struct {
	ID          EntityID
	Position    domain.Position2D
	RemainingMs uint16
}

// Snapshot は描画側に渡す1tick分の読み取り専用の状態です。
type Snapshot struct {
	Tick     uint32
	State    State
	Health   uint8
	Score    uint32
	Player   domain.Position2D
	Rotation Rotation
	Bullets  []BulletView
	Enemies  []EnemyView
	Effects  []EffectView
}

// Snapshot は現在のゲーム状態のコピーを返します。
func (g *Game) Snapshot() *Snapshot {
	f := g.field
	now := g.clock.Now()
	s := &Snapshot{
		Tick:     g.tick,
		State:    g.state,
		Health:   uint8(max(0, min(f.Health, MaxHealth))),
		Score:    uint32(f.Score),
		Player:   f.Player.Position,
		Rotation: f.Player.Rotation,
		Bullets:  make([]BulletView, 0, len(f.Bullets)),
		Enemies:  make([]EnemyView, 0, len(f.Enemies)),
		Effects:  make([]EffectView, 0, len(f.Effects)),
	}
	for _, b := range f.Bullets {
		s.Bullets = append(s.Bullets, BulletView{ID: b.ID, Position: b.Position})
	}
	for _, e := range f.Enemies {
		s.Enemies = append(s.Enemies, EnemyView{ID: e.ID, Kind: e.Kind, Position: e.Position, Speed: e.Speed})
	}
	for _, e := range f.Effects {
		ms := e.Remaining(now, g.variant.EffectLifetime).Milliseconds()
		s.Effects = append(s.Effects, EffectView{ID: e.ID, Position: e.Position, RemainingMs: uint16(min(ms, math.MaxUint16))})
	}
	return s
}

// Encode はスナップショットをリトルエンディアンのバイナリにエンコードします。
func (s *Snapshot) Encode() []byte {
	size := snapshotFixedSize +
		2 + len(s.Bullets)*bulletViewSize +
		2 + len(s.Enemies)*enemyViewSize +
		2 + len(s.Effects)*effectViewSize
	buf := make([]byte, size)

	binary.LittleEndian.PutUint32(buf[0:4], s.Tick)
	buf[4] = uint8(s.State)
	buf[5] = s.Health
	binary.LittleEndian.PutUint32(buf[6:10], s.Score)
	s.Player.Put(buf[10:18])
	binary.LittleEndian.PutUint16(buf[18:20], uint16(s.Rotation))
	off := snapshotFixedSize

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(s.Bullets)))
	off += 2
	for _, b := range s.Bullets {
		binary.LittleEndian.PutUint32(buf[off:], uint32(b.ID))
		b.Position.Put(buf[off+4:])
		off += bulletViewSize
	}

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(s.Enemies)))
	off += 2
	for _, e := range s.Enemies {
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.ID))
		buf[off+4] = uint8(e.Kind)
		e.Position.Put(buf[off+5:])
		binary.LittleEndian.PutUint32(buf[off+13:], math.Float32bits(e.Speed))
		off += enemyViewSize
	}

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(s.Effects)))
	off += 2
	for _, e := range s.Effects {
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.ID))
		e.Position.Put(buf[off+4:])
		binary.LittleEndian.PutUint16(buf[off+12:], e.RemainingMs)
		off += effectViewSize
	}
	return buf
}

// ParseSnapshot はバイナリからスナップショットをデコードします。
// 長さの不整合や有限でない座標はErrInvalidSnapshotになります。
func ParseSnapshot(data []byte) (*Snapshot, error) {
	r := snapshotReader{data: data, finite: true}
	s := &Snapshot{}

	s.Tick = r.u32()
	s.State = State(r.u8())
	s.Health = r.u8()
	s.Score = r.u32()
	s.Player = r.position()
	s.Rotation = Rotation(r.u16())

	n := int(r.u16())
	if !r.fits(n * bulletViewSize) {
		return nil, ErrInvalidSnapshot
	}
	s.Bullets = make([]BulletView, n)
	for i := range s.Bullets {
		s.Bullets[i] = BulletView{ID: EntityID(r.u32()), Position: r.position()}
	}

	n = int(r.u16())
	if !r.fits(n * enemyViewSize) {
		return nil, ErrInvalidSnapshot
	}
	s.Enemies = make([]EnemyView, n)
	for i := range s.Enemies {
		s.Enemies[i] = EnemyView{ID: EntityID(r.u32()), Kind: EnemyKind(r.u8()), Position: r.position(), Speed: r.f32()}
	}

	n = int(r.u16())
	if !r.fits(n * effectViewSize) {
		return nil, ErrInvalidSnapshot
	}
	s.Effects = make([]EffectView, n)
	for i := range s.Effects {
		s.Effects[i] = EffectView{ID: EntityID(r.u32()), Position: r.position(), RemainingMs: r.u16()}
	}

	if r.err || r.off != len(data) || !r.finite {
		return nil, ErrInvalidSnapshot
	}
	return s, nil
}

// EncodeSnapshotMessage はスナップショットをヘッダ付きのメッセージにします。
func EncodeSnapshotMessage(sessionID domain.SessionID, seq uint16, s *Snapshot) []byte {
	return domain.EncodeMessage(sessionID, seq, domain.DataTypeSnapshot, 0, s.Encode())
}

// snapshotReader は範囲外アクセスをerrフラグに記録しながら読み進めます。
type snapshotReader struct {
	data   []byte
	off    int
	err    bool
	finite bool
}

func (r *snapshotReader) fits(n int) bool {
	return !r.err && r.off+n <= len(r.data)
}

func (r *snapshotReader) take(n int) []byte {
	if !r.fits(n) {
		r.err = true
		return make([]byte, n)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *snapshotReader) u8() uint8   { return r.take(1)[0] }
func (r *snapshotReader) u16() uint16 { return binary.LittleEndian.Uint16(r.take(2)) }
func (r *snapshotReader) u32() uint32 { return binary.LittleEndian.Uint32(r.take(4)) }

func (r *snapshotReader) f32() float32 {
	f := math.Float32frombits(r.u32())
	if !utils.IsFinite(f) {
		r.finite = false
	}
	return f
}

func (r *snapshotReader) position() domain.Position2D {
	p := domain.Position2D{X: r.f32(), Y: r.f32()}
	if !utils.FinitePosition(p) {
		r.finite = false
	}
	return p
}
