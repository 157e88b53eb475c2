package models

// BucketMillis is the width of one series cell.
const BucketMillis int64 = 300_000

// SeriesMaxPoints caps the rolling series at 24 hours of 5-minute cells.
const SeriesMaxPoints = 288

// Bucket returns the 5-minute cell index of a UTC-millisecond timestamp.
func Bucket(tsMillis int64) int64 {
	return tsMillis / BucketMillis
}

// BucketStart returns the UTC-millisecond start of a bucket.
func BucketStart(bucket int64) int64 {
	return bucket * BucketMillis
}
