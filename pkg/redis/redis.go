package redis

import (
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

type RedisConnectionPool struct {
	*redis.Pool
}

func NewRedisConnectionPool(uri string) *RedisConnectionPool {
	pool := &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			c, err := redis.Dial("tcp", uri)
			if err != nil {
				return nil, err
			}
			return c, err
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	return &RedisConnectionPool{pool}
}

// Ping checks that a connection can be obtained and answers.
func (p *RedisConnectionPool) Ping() error {
	conn := p.Get()
	defer conn.Close()

	_, err := redis.String(conn.Do("PING"))
	return err
}

// Set sets a key to a given value
func (p *RedisConnectionPool) Set(key string, value interface{}) error {
	conn := p.Get()
	defer conn.Close()

	ok, err := redis.String(conn.Do("SET", key, value))
	if err != nil {
		return err
	} else if ok != "OK" {
		return fmt.Errorf("Some error occurred while running SET command on key: %v", key)
	}
	return nil
}

// SetWithMember stores value under key and records key in the set index, atomically.
func (p *RedisConnectionPool) SetWithMember(key string, value interface{}, index string) error {
	conn := p.Get()
	defer conn.Close()

	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	if err := conn.Send("SET", key, value); err != nil {
		return err
	}
	if err := conn.Send("SADD", index, key); err != nil {
		return err
	}
	_, err := conn.Do("EXEC")
	return err
}

func (p *RedisConnectionPool) GetInt(key string) (int, bool, error) {
	conn := p.Get()
	defer conn.Close()

	value, err := redis.Int(conn.Do("GET", key))
	if err != nil {
		if err == redis.ErrNil {
			return 0, false, nil
		}
		return 0, false, err
	}

	return value, true, nil
}

// MGetBytes returns the values of keys in order; missing keys yield nil entries.
func (p *RedisConnectionPool) MGetBytes(keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	conn := p.Get()
	defer conn.Close()

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	return redis.ByteSlices(conn.Do("MGET", args...))
}

func (p *RedisConnectionPool) Members(index string) ([]string, error) {
	conn := p.Get()
	defer conn.Close()

	return redis.Strings(conn.Do("SMEMBERS", index))
}

// Del removes the given keys from Redis
func (p *RedisConnectionPool) Del(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	conn := p.Get()
	defer conn.Close()

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	_, err := redis.Int64(conn.Do("DEL", args...))
	return err
}
