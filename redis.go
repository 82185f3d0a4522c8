package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mauricedolibois/bubblepop/mocks"
	"github.com/redis/go-redis/v9"
)

// CachedScore is one member of the cached leaderboard
type CachedScore struct {
	ScoreID   string `json:"scoreId"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	CreatedAt int64  `json:"createdAt"`
}

// ScoreAnnouncement is sent via Pub/Sub when any pod saves a score
type ScoreAnnouncement struct {
	Name      string `json:"name" msgpack:"name"`
	Score     int    `json:"score" msgpack:"score"`
	Rank      int    `json:"rank" msgpack:"rank"`
	FromPodID string `json:"fromPodId" msgpack:"fromPodId"`
}

var (
	redisClient  *redis.Client
	podID        string
	useMockRedis bool
)

const (
	leaderboardKey       = "bubblepop:leaderboard"
	scoreNotifyChannel   = "bubblepop:scores"
	leaderboardCacheSize = mocks.LeaderboardCap

	// Members are prefixed with an inverted timestamp so that equal scores
	// come back earliest first from ZREVRANGE.
	memberTimeBase = int64(9_999_999_999_999)
)

// InitRedis initializes the Redis/Valkey connection
func InitRedis(ctx context.Context, addr string) error {
	useMockRedis = mocks.IsMockMode()

	if useMockRedis {
		log.Println("[REDIS] Running in MOCK MODE - using in-memory leaderboard cache")
		podID = mocks.GetMockRedis().GetPodID()
		return nil
	}

	if addr == "" {
		addr = "localhost:6379" // Default for local dev
	}

	hostname, _ := os.Hostname()
	podID = fmt.Sprintf("%s_%d", hostname, time.Now().UnixNano())

	redisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "", // ElastiCache doesn't use password by default
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] Warning: connection failed: %v. Leaderboard reads go straight to the database.", err)
		redisClient = nil
		return err
	}

	log.Printf("[REDIS] Connected to Redis/Valkey at %s (Pod: %s)", addr, podID)
	return nil
}

func cacheMember(entry CachedScore) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%013d|%s", memberTimeBase-entry.CreatedAt, data), nil
}

func parseCacheMember(member string) (CachedScore, error) {
	var entry CachedScore
	_, data, ok := strings.Cut(member, "|")
	if !ok {
		return entry, fmt.Errorf("malformed leaderboard member %q", member)
	}
	err := json.Unmarshal([]byte(data), &entry)
	return entry, err
}

// CacheScore adds a saved score to the leaderboard cache and returns its rank (0 when trimmed)
func CacheScore(ctx context.Context, entry CachedScore) (int, error) {
	if useMockRedis {
		return mocks.GetMockRedis().CacheScore(mocks.CachedScore{
			ScoreID:   entry.ScoreID,
			Name:      entry.Name,
			Score:     entry.Score,
			CreatedAt: entry.CreatedAt,
		})
	}

	if redisClient == nil {
		return 0, fmt.Errorf("redis not initialized")
	}

	member, err := cacheMember(entry)
	if err != nil {
		return 0, err
	}

	pipe := redisClient.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(entry.Score), Member: member})
	pipe.ZRemRangeByRank(ctx, leaderboardKey, 0, -int64(leaderboardCacheSize)-1)
	rank := pipe.ZRevRank(ctx, leaderboardKey, member)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, err
	}

	r, err := rank.Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(r) + 1, nil
}

// GetCachedTopScores returns up to limit cached scores, best first
func GetCachedTopScores(ctx context.Context, limit int) ([]CachedScore, error) {
	if useMockRedis {
		cached, err := mocks.GetMockRedis().TopScores(limit)
		if err != nil {
			return nil, err
		}
		out := make([]CachedScore, len(cached))
		for i, c := range cached {
			out[i] = CachedScore{ScoreID: c.ScoreID, Name: c.Name, Score: c.Score, CreatedAt: c.CreatedAt}
		}
		return out, nil
	}

	if redisClient == nil {
		return nil, fmt.Errorf("redis not initialized")
	}

	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	members, err := redisClient.ZRevRange(ctx, leaderboardKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	out := make([]CachedScore, 0, len(members))
	for _, m := range members {
		entry, err := parseCacheMember(m)
		if err != nil {
			log.Printf("[REDIS] Skipping leaderboard member: %v", err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// CachedLeaderboardSize returns how many scores the cache holds
func CachedLeaderboardSize(ctx context.Context) (int64, error) {
	if useMockRedis {
		return mocks.GetMockRedis().LeaderboardSize(), nil
	}
	if redisClient == nil {
		return 0, fmt.Errorf("redis not initialized")
	}
	return redisClient.ZCard(ctx, leaderboardKey).Result()
}

// PublishScoreAnnouncement publishes a saved score to all pods
func PublishScoreAnnouncement(ctx context.Context, a ScoreAnnouncement) error {
	if useMockRedis {
		return mocks.GetMockRedis().PublishScore(mocks.ScoreAnnouncement{
			Name:   a.Name,
			Score:  a.Score,
			Rank:   a.Rank,
			FromID: a.FromPodID,
		})
	}

	if redisClient == nil {
		return fmt.Errorf("redis not initialized")
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return redisClient.Publish(ctx, scoreNotifyChannel, string(data)).Err()
}

// SubscribeToScores delivers score announcements to handler until ctx is done
func SubscribeToScores(ctx context.Context, handler func(ScoreAnnouncement)) {
	if useMockRedis {
		ch := mocks.GetMockRedis().Subscribe()
		go func() {
			for {
				select {
				case msg := <-ch:
					var a ScoreAnnouncement
					if err := json.Unmarshal([]byte(msg), &a); err != nil {
						continue
					}
					handler(a)
				case <-ctx.Done():
					return
				}
			}
		}()
		return
	}

	if redisClient == nil {
		log.Println("[REDIS] Not available, skipping score subscription")
		return
	}

	pubsub := redisClient.Subscribe(ctx, scoreNotifyChannel)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var a ScoreAnnouncement
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					log.Printf("[REDIS] Failed to parse score announcement: %v", err)
					continue
				}
				handler(a)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// redisEnabled reports whether cache calls have somewhere to go, without a round trip
func redisEnabled() bool {
	return useMockRedis || redisClient != nil
}

// IsRedisAvailable returns true if Redis is connected and available (or mock mode is enabled)
func IsRedisAvailable(ctx context.Context) bool {
	if useMockRedis {
		return true
	}
	if redisClient == nil {
		return false
	}
	return redisClient.Ping(ctx).Err() == nil
}

// GetPodID returns the unique identifier for this pod
func GetPodID() string {
	return podID
}
