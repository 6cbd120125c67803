package domain

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// バイトオーダー: リトルエンディアン
var byteOrder = binary.LittleEndian

const (
	ProtocolVersion   = 1
	HeaderSize        = 25
	PayloadHeaderSize = 2
	JoinPayloadSize   = 16
	MaxKeyLength      = 32
)

// Header はメッセージヘッダー (25バイト)
//
//	version    u8      (1)
//	sessionID  [16]byte (16)
//	seq        u16     (2)
//	length     u16     (2)  - ペイロード長
//	timestamp  u32     (4)
type Header struct {
	Version   uint8
	SessionID [16]byte
	Seq       uint16
	Length    uint16
	Timestamp uint32
}

// DataType はメッセージの種別
type DataType uint8

const (
	DataTypeInput    DataType = 1
	DataTypeSnapshot DataType = 2
	DataTypeControl  DataType = 4
)

// ControlSubType はcontrolメッセージのサブタイプ
type ControlSubType uint8

const (
	ControlSubTypeJoin   ControlSubType = 1
	ControlSubTypeLeave  ControlSubType = 2
	ControlSubTypeKick   ControlSubType = 3
	ControlSubTypePing   ControlSubType = 4
	ControlSubTypePong   ControlSubType = 5
	ControlSubTypeError  ControlSubType = 6
	ControlSubTypeAssign ControlSubType = 7
	ControlSubTypeStart  ControlSubType = 8
)

func (c ControlSubType) String() string {
	switch c {
	case ControlSubTypeJoin:
		return "join"
	case ControlSubTypeLeave:
		return "leave"
	case ControlSubTypeKick:
		return "kick"
	case ControlSubTypePing:
		return "ping"
	case ControlSubTypePong:
		return "pong"
	case ControlSubTypeError:
		return "error"
	case ControlSubTypeAssign:
		return "assign"
	case ControlSubTypeStart:
		return "start"
	default:
		return "unknown"
	}
}

// PayloadHeader はペイロードヘッダー (2バイト)
//
//	datatype  u8 (1)
//	subtype   u8 (1)
type PayloadHeader struct {
	DataType DataType
	SubType  uint8
}

var (
	ErrInvalidHeaderSize       = errors.New("invalid header size")
	ErrInvalidPayloadSize      = errors.New("invalid payload size")
	ErrInvalidJoinPayloadSize  = errors.New("invalid join payload size")
	ErrInvalidInputPayloadSize = errors.New("invalid input payload size")
)

// ParseHeader はバイト列からHeaderをパースする
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	var sessionID [16]byte
	copy(sessionID[:], data[1:17])

	return &Header{
		Version:   data[0],
		SessionID: sessionID,
		Seq:       byteOrder.Uint16(data[17:19]),
		Length:    byteOrder.Uint16(data[19:21]),
		Timestamp: byteOrder.Uint32(data[21:25]),
	}, nil
}

// Encode はHeaderをバイト列にエンコードする
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	data[0] = h.Version
	copy(data[1:17], h.SessionID[:])
	byteOrder.PutUint16(data[17:19], h.Seq)
	byteOrder.PutUint16(data[19:21], h.Length)
	byteOrder.PutUint32(data[21:25], h.Timestamp)
	return data
}

// ParsePayloadHeader はバイト列からPayloadHeaderをパースする
func ParsePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PayloadHeaderSize {
		return nil, ErrInvalidPayloadSize
	}

	return &PayloadHeader{
		DataType: DataType(data[0]),
		SubType:  data[1],
	}, nil
}

// Encode はPayloadHeaderをバイト列にエンコードする
func (p *PayloadHeader) Encode() []byte {
	data := make([]byte, PayloadHeaderSize)
	data[0] = byte(p.DataType)
	data[1] = p.SubType
	return data
}

// ParseMessage はヘッダー・ペイロードヘッダー・本文に分解する
func ParseMessage(data []byte) (*Header, *PayloadHeader, []byte, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}
	payloadHeader, err := ParsePayloadHeader(data[HeaderSize:])
	if err != nil {
		return nil, nil, nil, err
	}
	return header, payloadHeader, data[HeaderSize+PayloadHeaderSize:], nil
}

// EncodeMessage はヘッダー・ペイロードヘッダー・本文を1つのメッセージにまとめる
func EncodeMessage(sessionID SessionID, seq uint16, dataType DataType, subType uint8, body []byte) []byte {
	header := Header{
		Version:   ProtocolVersion,
		SessionID: sessionID.Bytes(),
		Seq:       seq,
		Length:    uint16(PayloadHeaderSize + len(body)),
		Timestamp: uint32(time.Now().UnixMilli() & 0xFFFFFFFF),
	}
	payloadHeader := PayloadHeader{
		DataType: dataType,
		SubType:  subType,
	}

	data := make([]byte, HeaderSize+PayloadHeaderSize+len(body))
	copy(data[:HeaderSize], header.Encode())
	copy(data[HeaderSize:], payloadHeader.Encode())
	copy(data[HeaderSize+PayloadHeaderSize:], body)
	return data
}

// EncodeControlMessage は本文を持たないcontrolメッセージをエンコードする
func EncodeControlMessage(sessionID SessionID, seq uint16, subType ControlSubType) []byte {
	return EncodeMessage(sessionID, seq, DataTypeControl, uint8(subType), nil)
}

// EncodeAssignMessage はセッションID通知メッセージをエンコードする
// クライアントに自分のセッションIDを通知するために使用
func EncodeAssignMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypeAssign)
}

// EncodeLeaveMessage はルーム離脱メッセージをエンコードする
// 異常切断時にclose()からRoom離脱を通知するために使用
func EncodeLeaveMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypeLeave)
}

// EncodePingMessage はPingメッセージをエンコードする
func EncodePingMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypePing)
}

// EncodeJoinMessage はルーム参加メッセージをエンコードする
// roomIDが空の場合はサーバー側で割り当てられる
func EncodeJoinMessage(sessionID SessionID, seq uint16, roomID RoomID) []byte {
	payload := JoinPayload{RoomID: roomID}
	return EncodeMessage(sessionID, seq, DataTypeControl, uint8(ControlSubTypeJoin), payload.Encode())
}

// JoinPayload はルーム参加メッセージのペイロード (16バイト)
//
//	roomID  [16]byte  - ルームID (UUID, 全て0なら自動割り当て)
type JoinPayload struct {
	RoomID RoomID
}

// ParseJoinPayload はバイト列からJoinPayloadをパースする
func ParseJoinPayload(data []byte) (*JoinPayload, error) {
	if len(data) < JoinPayloadSize {
		return nil, ErrInvalidJoinPayloadSize
	}

	var raw uuid.UUID
	copy(raw[:], data[:JoinPayloadSize])
	if raw == uuid.Nil {
		return &JoinPayload{}, nil
	}
	return &JoinPayload{
		RoomID: RoomID(raw.String()),
	}, nil
}

// Encode はJoinPayloadをバイト列にエンコードする
func (j *JoinPayload) Encode() []byte {
	data := make([]byte, JoinPayloadSize)
	if id, err := uuid.Parse(j.RoomID.String()); err == nil {
		copy(data, id[:])
	}
	return data
}

// InputPayload はユーザー入力 (1+nバイト)
//
//	length u8     (1) - キー名の長さ
//	key    []byte (n) - キー名 (UTF-8)
type InputPayload struct {
	Key string
}

// ParseInputPayload はバイト列からInputPayloadをパースする
func ParseInputPayload(data []byte) (*InputPayload, error) {
	if len(data) < 1 {
		return nil, ErrInvalidInputPayloadSize
	}
	n := int(data[0])
	if n == 0 || n > MaxKeyLength || len(data) < 1+n {
		return nil, ErrInvalidInputPayloadSize
	}
	return &InputPayload{
		Key: string(data[1 : 1+n]),
	}, nil
}

// Encode はInputPayloadをバイト列にエンコードする
func (i *InputPayload) Encode() []byte {
	key := i.Key
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	data := make([]byte, 1+len(key))
	data[0] = uint8(len(key))
	copy(data[1:], key)
	return data
}

// EncodeInputMessage はキー入力メッセージをエンコードする
func EncodeInputMessage(sessionID SessionID, seq uint16, key string) []byte {
	payload := InputPayload{Key: strings.ToLower(key)}
	return EncodeMessage(sessionID, seq, DataTypeInput, 0, payload.Encode())
}
