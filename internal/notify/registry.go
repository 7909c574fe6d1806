package notify

import (
	"errors"
	"sync"
)

// 送信バッファが詰まっている
var ErrBufferFull = errors.New("connection buffer full")

// 接続がもう閉じている
var ErrConnClosed = errors.New("connection closed")

// Conn は1本のライブ接続。Sendはブロックしない
type Conn interface {
	Send(ev Event) error
}

// Registry は user_id -> 接続 の対応表（このプロセス内だけ）。
// 同じユーザーが再登録したら後勝ち。
type Registry struct {
	mu    sync.Mutex
	conns map[int64]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]Conn)}
}

func (r *Registry) Register(userID int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

// Unregister は接続の値で探して消す。見つからなければ何もしない。
// 後から別の接続で再登録されていた場合、古い接続の切断では消えない
func (r *Registry) Unregister(c Conn) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cur := range r.conns {
		if cur == c {
			delete(r.conns, id)
			return id, true
		}
	}
	return 0, false
}

func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
