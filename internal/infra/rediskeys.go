package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "afr"
)

// Ключи кэша производных представлений. Всё под ними — пересчитываемое:
// потеря Redis не теряет данных, только ускорение.
const (
	RedisKeyAnalyticsOverview = RedisNamespace + ":analytics:overview"
)

// DiffCacheKey Генератор ключа для кэша диффа пары ранов
func DiffCacheKey(runID, againstID string) string {
	return fmt.Sprintf("%s:diff:%s:%s", RedisNamespace, runID, againstID)
}
