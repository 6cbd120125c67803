package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"alpaca/server/application"
)

type keyAction uint8

const (
	actionNone keyAction = iota
	actionKey
	actionStart
	actionQuit
)

// translateKey は端末のキー入力をゲームのキー名に変換します。
func translateKey(ev *tcell.EventKey) (keyAction, string) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit, ""
	case tcell.KeyEnter:
		return actionStart, ""
	case tcell.KeyUp:
		return actionKey, "ArrowUp"
	case tcell.KeyDown:
		return actionKey, "ArrowDown"
	case tcell.KeyLeft:
		return actionKey, "ArrowLeft"
	case tcell.KeyRight:
		return actionKey, "ArrowRight"
	case tcell.KeyRune:
		key := string(ev.Rune())
		if _, ok := application.MapKey(key); ok {
			return actionKey, key
		}
	}
	return actionNone, ""
}

var (
	styleFrame  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBullet = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleEffect = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

var enemyGlyphs = map[application.EnemyKind]struct {
	r     rune
	style tcell.Style
}{
	application.EnemyKindPan:  {'p', tcell.StyleDefault.Foreground(tcell.ColorRed)},
	application.EnemyKindBomb: {'*', tcell.StyleDefault.Foreground(tcell.ColorPurple)},
	application.EnemyKindBoss: {'B', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
}

// renderer はスナップショットを端末の文字グリッドに縮小して描きます。
type renderer struct {
	screen  tcell.Screen
	variant *application.Variant
}

func newRenderer(screen tcell.Screen, variant *application.Variant) *renderer {
	return &renderer{screen: screen, variant: variant}
}

// cell はアリーナ座標をフレーム内のセル座標に変換します。範囲外ならok=false。
func (r *renderer) cell(x, y float32) (int, int, bool) {
	w, h := r.screen.Size()
	cols, rows := w-2, h-3
	if cols <= 0 || rows <= 0 || x < 0 || y < 0 || x > r.variant.Width || y > r.variant.Height {
		return 0, 0, false
	}
	cx := int(x / r.variant.Width * float32(cols-1))
	cy := int(y / r.variant.Height * float32(rows-1))
	return cx + 1, cy + 2, true
}

func (r *renderer) drawWaiting() {
	r.screen.Clear()
	r.text(0, 0, "connecting... (Enter: start, Esc: quit)", styleHUD)
	r.screen.Show()
}

func (r *renderer) draw(s *application.Snapshot) {
	r.screen.Clear()
	r.frame()

	hud := fmt.Sprintf("HP %3d  SCORE %6d  %s", s.Health, s.Score, s.State)
	switch s.State {
	case application.StateIdle:
		hud += "  [Enter] start"
	case application.StateGameOver:
		hud += "  [Enter] restart"
	}
	r.text(0, 0, hud, styleHUD)

	for _, e := range s.Effects {
		if x, y, ok := r.cell(e.Position.X, e.Position.Y); ok {
			r.screen.SetContent(x, y, '+', nil, styleEffect)
		}
	}
	for _, e := range s.Enemies {
		g, ok := enemyGlyphs[e.Kind]
		if !ok {
			g = enemyGlyphs[application.EnemyKindPan]
		}
		if x, y, ok := r.cell(e.Position.X, e.Position.Y); ok {
			r.screen.SetContent(x, y, g.r, nil, g.style)
		}
	}
	for _, b := range s.Bullets {
		if x, y, ok := r.cell(b.Position.X, b.Position.Y); ok {
			r.screen.SetContent(x, y, '|', nil, styleBullet)
		}
	}
	half := r.variant.SpriteSize / 2
	if x, y, ok := r.cell(s.Player.X+half, s.Player.Y+half); ok {
		r.screen.SetContent(x, y, playerGlyph(s.Rotation), nil, stylePlayer)
	}
	r.screen.Show()
}

func playerGlyph(rotation application.Rotation) rune {
	switch rotation {
	case application.RotationUp:
		return '^'
	case application.RotationDown:
		return 'v'
	case application.RotationLeft:
		return '<'
	default:
		return '>'
	}
}

func (r *renderer) frame() {
	w, h := r.screen.Size()
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, 1, '-', nil, styleFrame)
		r.screen.SetContent(x, h-1, '-', nil, styleFrame)
	}
	for y := 2; y < h-1; y++ {
		r.screen.SetContent(0, y, '|', nil, styleFrame)
		r.screen.SetContent(w-1, y, '|', nil, styleFrame)
	}
}

func (r *renderer) text(x, y int, s string, style tcell.Style) {
	for i, ch := range []rune(s) {
		r.screen.SetContent(x+i, y, ch, nil, style)
	}
}
