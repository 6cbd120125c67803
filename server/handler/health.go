package handler

import (
	"net/http"
	"strconv"
)

// RoomCounter は稼働中のルーム数を報告します。
type RoomCounter interface {
	Len() int
}

// NewHealthHandler は死活監視用のハンドラを返します。
// counterがnilでなければ稼働中のルーム数をX-Active-Roomsヘッダに載せます。
func NewHealthHandler(counter RoomCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if counter != nil {
			w.Header().Set("X-Active-Rooms", strconv.Itoa(counter.Len()))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
