package data

import (
	"context"
	"fmt"
	"time"

	"vidociki/internal/biz"
	"vidociki/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
)

// awaitVideoTTL 等待视频标记的有效期，超时后需要重新点"处理视频"
const awaitVideoTTL = 10 * time.Minute

// sessionStore 会话状态存储（Redis）
type sessionStore struct {
	data *Data
	log  *log.Helper
}

// NewSessionStore 创建会话状态存储（返回 biz.SessionStore 接口）
func NewSessionStore(data *Data, logger log.Logger) biz.SessionStore {
	return &sessionStore{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func awaitKey(userID string) string {
	return fmt.Sprintf("%s%s", constants.RedisKeyAwaitVideo, userID)
}

// AwaitVideo 打上等待视频标记
func (s *sessionStore) AwaitVideo(ctx context.Context, userID string) error {
	return s.data.rdb.Set(ctx, awaitKey(userID), 1, awaitVideoTTL).Err()
}

// IsAwaitingVideo 当前用户是否处于等待视频状态
func (s *sessionStore) IsAwaitingVideo(ctx context.Context, userID string) (bool, error) {
	if err := s.data.rdb.Get(ctx, awaitKey(userID)).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClearAwaitVideo 清除等待视频标记
func (s *sessionStore) ClearAwaitVideo(ctx context.Context, userID string) error {
	return s.data.rdb.Del(ctx, awaitKey(userID)).Err()
}
