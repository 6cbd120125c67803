package application

import "strings"

// Command はキー入力から変換されたゲーム操作です。
type Command uint8

const (
	CommandNone Command = iota
	CommandUp
	CommandDown
	CommandLeft
	CommandRight
	CommandFire
)

func (c Command) String() string {
	switch c {
	case CommandUp:
		return "up"
	case CommandDown:
		return "down"
	case CommandLeft:
		return "left"
	case CommandRight:
		return "right"
	case CommandFire:
		return "fire"
	default:
		return "none"
	}
}

var keyCommands = map[string]Command{
	"w":          CommandUp,
	"a":          CommandLeft,
	"s":          CommandDown,
	"d":          CommandRight,
	" ":          CommandFire,
	"arrowup":    CommandUp,
	"arrowleft":  CommandLeft,
	"arrowdown":  CommandDown,
	"arrowright": CommandRight,
}

// MapKey はキー名（大文字小文字を区別しない）をCommandに変換します。
// 未知のキーは ok=false を返します。
func MapKey(key string) (Command, bool) {
	cmd, ok := keyCommands[strings.ToLower(key)]
	return cmd, ok
}

// direction は移動コマンドの単位移動量と向きを返します。
func (c Command) direction() (dx, dy float32, rotation Rotation, ok bool) {
	switch c {
	case CommandUp:
		return 0, -1, RotationUp, true
	case CommandDown:
		return 0, 1, RotationDown, true
	case CommandLeft:
		return -1, 0, RotationLeft, true
	case CommandRight:
		return 1, 0, RotationRight, true
	default:
		return 0, 0, 0, false
	}
}
