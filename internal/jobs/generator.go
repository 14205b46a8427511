package jobs

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"scoreledger/internal/models"
)

var gridSizes = []int{3, 4, 5, 6}

// RandomMatch builds a valid, plausible match request for playerID played at at.
// Used by the load simulator and the seeder so both go through the real scoring path.
func RandomMatch(r *rand.Rand, playerID string, at time.Time) *models.AddMatchRequest {
	req := &models.AddMatchRequest{
		MatchID:   uuid.NewString(),
		PlayerID:  playerID,
		GameType:  string(models.GameTypeSolo),
		GameMode:  string(models.GameModeUntimed),
		Operation: string(models.OperationAddition),
		GridSize:  gridSizes[r.Intn(len(gridSizes))],
		Timestamp: &at,
		HintsUsed: r.Intn(7),
	}

	if r.Intn(2) == 0 {
		req.Operation = string(models.OperationSubtraction)
	}

	switch n := r.Intn(10); {
	case n < 8:
		req.Status = string(models.StatusCompleted)
	case n < 9:
		req.Status = string(models.StatusAbandoned)
	default:
		req.Status = string(models.StatusTimedOut)
	}

	score := r.Intn(101)
	accuracy := float64(r.Intn(1001)) / 10
	req.FinalScore = &score
	req.AccuracyPercentage = &accuracy

	if r.Intn(2) == 0 {
		req.GameMode = string(models.GameModeTimed)
		if req.Status == string(models.StatusCompleted) {
			seconds := 20 + r.Intn(req.GridSize*70)
			req.CompletionTime = &seconds
		}
	}

	if r.Intn(3) == 0 {
		total := 2 + r.Intn(4)
		position := 1 + r.Intn(total)
		room := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		req.GameType = string(models.GameTypeMultiplayer)
		req.TotalPlayers = &total
		req.Position = &position
		req.RoomCode = &room
	}

	return req
}
