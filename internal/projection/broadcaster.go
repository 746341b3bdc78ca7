package projection

import "torch-indexer/internal/models"

// Broadcaster pushes freshly projected entities to live subscribers. The
// websocket feed implements it; a nil broadcaster disables the feed.
type Broadcaster interface {
	BroadcastBetPlaced(bet *models.Bet)
	BroadcastBetFinalized(bet *models.Bet)
	BroadcastBetClaimed(bet *models.Bet)
	BroadcastFeeCollected(fee *models.Fee)
}
