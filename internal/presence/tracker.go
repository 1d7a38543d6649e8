// Package presence зеркалит онлайн-статус пользователей в Redis,
// чтобы статус был виден за пределами процесса.
package presence

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const onlineTTL = 5 * time.Minute

type Tracker struct {
	rdb    *redis.Client
	prefix string
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, prefix: "online:"}
}

func (t *Tracker) key(userID uuid.UUID) string {
	return t.prefix + userID.String()
}

// SetOnline ставит ключ с TTL; Refresh продлевает его, пока живо
// хотя бы одно соединение.
func (t *Tracker) SetOnline(userID uuid.UUID) {
	if err := t.rdb.Set(context.Background(), t.key(userID), 1, onlineTTL).Err(); err != nil {
		log.Printf("presence: set online %s: %v", userID, err)
	}
}

func (t *Tracker) Refresh(userID uuid.UUID) {
	if err := t.rdb.Expire(context.Background(), t.key(userID), onlineTTL).Err(); err != nil {
		log.Printf("presence: refresh %s: %v", userID, err)
	}
}

func (t *Tracker) SetOffline(userID uuid.UUID) {
	if err := t.rdb.Del(context.Background(), t.key(userID)).Err(); err != nil {
		log.Printf("presence: set offline %s: %v", userID, err)
	}
}

func (t *Tracker) IsOnline(userID uuid.UUID) bool {
	n, err := t.rdb.Exists(context.Background(), t.key(userID)).Result()
	if err != nil {
		log.Printf("presence: check %s: %v", userID, err)
		return false
	}
	return n > 0
}
