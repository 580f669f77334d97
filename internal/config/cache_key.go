package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AdminSessionKey returns the cache key holding the active token ID of an admin
func (r *CacheKeyStruct) AdminSessionKey(adminID int) string {
	return fmt.Sprintf("admin:%d:session", adminID)
}

// AuthRateKey returns the fixed-window counter key for an auth client IP
func (r *CacheKeyStruct) AuthRateKey(ip string) string {
	return fmt.Sprintf("ratelimit:auth:%s", ip)
}

// PublishProgressChannel returns the Redis PubSub channel for a fan-out dispatch
func (r *CacheKeyStruct) PublishProgressChannel(dispatchID string) string {
	return fmt.Sprintf("publish:%s:progress", dispatchID)
}

var CacheKey = NewCacheKeyStruct()
