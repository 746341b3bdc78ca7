package store

const (
	KeyUser       = "user:%s"
	KeyUserStats  = "user:%s:stats"
	KeyUserBets   = "user:%s:bets"
	KeyBet        = "bet:%s"
	KeyBets       = "bets"
	KeyBucketBets = "bucket:%d:bets"
	KeyFee        = "fee:%s"
	KeyFees       = "fees"
	KeyProcessed  = "event:processed:%s"
	KeyCheckpoint = "indexer:checkpoint"
	KeyRateLimit  = "ratelimit:%s:%s"

	DefaultListLimit = 50
	MaxListLimit     = 500
)
