package repository

import (
	"fmt"

	"PulseGate/internal/domain/models"
)

// Key layout. The ingestor owns snap5m, the derivation engine owns series5m
// and lastBucket, the evaluator owns alert:*. instmap is written by the
// instrument resolver, which both the ingestor and the derivation engine
// call, so either of them can write an instmap entry on a cache miss.
func snapshotKey(instID string, bucket int64) string {
	return fmt.Sprintf("snap5m:%s:%d", instID, bucket)
}

func seriesKey(instID string) string {
	return fmt.Sprintf("series5m:%s", instID)
}

func lastBucketKey(instID string) string {
	return fmt.Sprintf("lastBucket:%s", instID)
}

func instMapKey(base string) string {
	return fmt.Sprintf("instmap:swap:%s", base)
}

const instrumentListKey = "okx:instruments:swap:list:v1"

func lastStateKey(mode models.Mode, instID string) string {
	return fmt.Sprintf("alert:lastState:%s:%s", mode, instID)
}

func lastState15mKey(instID string) string {
	return fmt.Sprintf("alert:lastState15m:%s", instID)
}

func lastSentAtKey(instID string) string {
	return fmt.Sprintf("alert:lastSentAt:%s", instID)
}
