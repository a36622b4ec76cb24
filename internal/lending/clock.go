package lending

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct{}

// DefaultEntropy はプロセス共有・ゴルーチン安全な単調増加エントロピー
func (ulidGen) NewULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
