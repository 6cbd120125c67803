package application

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"alpaca/server/domain"
)

const tracerName = "alpaca/server/application"

// ShooterApplication はGameをRoomのtickループに載せるApplicationです。
type ShooterApplication struct {
	roomID domain.RoomID
	game   *Game
	tracer trace.Tracer

	owner         domain.SessionID
	pendingInputs []InputEvent
	seq           uint16
	span          trace.Span
}

var _ domain.Application = (*ShooterApplication)(nil)

// InputEvent は次のtickで適用する1つの入力イベントです。
type InputEvent struct {
	SessionID domain.SessionID
	Seq       uint16
	Start     bool
	Key       string
}

func NewShooterApplication(roomID domain.RoomID, game *Game) *ShooterApplication {
	return &ShooterApplication{
		roomID:        roomID,
		game:          game,
		tracer:        otel.Tracer(tracerName),
		pendingInputs: make([]InputEvent, 0, 16),
	}
}

func (app *ShooterApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	header, payloadHeader, body, err := domain.ParseMessage(data)
	if err != nil {
		return fmt.Errorf("shooter: %w", err)
	}
	if app.owner.IsEmpty() {
		app.owner = sessionID
	}

	switch payloadHeader.DataType {
	case domain.DataTypeInput:
		input, err := domain.ParseInputPayload(body)
		if err != nil {
			return fmt.Errorf("shooter: %w", err)
		}
		slog.DebugContext(ctx, "handleInput", "sessionID", sessionID, "seq", header.Seq, "key", input.Key)
		app.pendingInputs = append(app.pendingInputs, InputEvent{SessionID: sessionID, Seq: header.Seq, Key: input.Key})
	case domain.DataTypeControl:
		if domain.ControlSubType(payloadHeader.SubType) != domain.ControlSubTypeStart {
			slog.DebugContext(ctx, "handleControl: ignored", "sessionID", sessionID, "subType", domain.ControlSubType(payloadHeader.SubType))
			return nil
		}
		app.pendingInputs = append(app.pendingInputs, InputEvent{SessionID: sessionID, Seq: header.Seq, Start: true})
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
	}
	return nil
}

// Tick は溜まった入力を適用し、ゲームを1tick進め、エンコード済みのスナップショットを返します。
func (app *ShooterApplication) Tick(ctx context.Context) []byte {
	for _, in := range app.pendingInputs {
		if in.Start {
			app.start(ctx)
			continue
		}
		app.game.HandleKey(in.Key)
	}
	clear(app.pendingInputs)
	app.pendingInputs = app.pendingInputs[:0]

	if app.game.Step(ctx) {
		app.finish(ctx)
	}

	app.seq++
	return EncodeSnapshotMessage(app.owner, app.seq, app.game.Snapshot())
}

func (app *ShooterApplication) start(ctx context.Context) {
	if app.span != nil {
		app.span.AddEvent("restart")
		app.span.End()
	}
	_, app.span = app.tracer.Start(ctx, "game.session",
		trace.WithAttributes(
			attribute.String("room.id", app.roomID.String()),
			attribute.String("session.id", app.owner.String()),
			attribute.String("game.variant", app.game.Variant().Name),
		))
	app.game.Start()
	slog.InfoContext(ctx, "game started", "roomID", app.roomID, "sessionID", app.owner, "variant", app.game.Variant().Name)
}

func (app *ShooterApplication) finish(ctx context.Context) {
	score := app.game.Field().Score
	slog.InfoContext(ctx, "game over", "roomID", app.roomID, "sessionID", app.owner, "score", score, "tick", app.game.Tick())
	if app.span == nil {
		return
	}
	app.span.SetAttributes(attribute.Int("game.score", score), attribute.Int64("game.tick", int64(app.game.Tick())))
	app.span.End()
	app.span = nil
}

// Game はテストや診断用に内部のGameを返します。
func (app *ShooterApplication) Game() *Game {
	return app.game
}
