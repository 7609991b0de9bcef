package timing

import (
	"math/rand/v2"

	"kdo-portal/internal/models"
)

const (
	lotterySize = 10
	firstMotor  = 101
)

type Draw struct {
	PilotID string `json:"pilotId"`
	Pilot   string `json:"pilot"`
	Number  string `json:"number"`
	Motor   int    `json:"motor"`
}

// MotorLottery assigns sealed motors 101, 102, ... in random order to the
// first ten confirmed pilots of the roster.
func MotorLottery(pilots []models.Pilot, rng *rand.Rand) []Draw {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	entrants := make([]models.Pilot, 0, lotterySize)
	for _, p := range pilots {
		if p.Status != models.StatusConfirmed {
			continue
		}
		entrants = append(entrants, p)
		if len(entrants) == lotterySize {
			break
		}
	}
	motors := make([]int, len(entrants))
	for i := range motors {
		motors[i] = firstMotor + i
	}
	rng.Shuffle(len(motors), func(i, j int) { motors[i], motors[j] = motors[j], motors[i] })

	draws := make([]Draw, len(entrants))
	for i, p := range entrants {
		draws[i] = Draw{PilotID: p.ID, Pilot: p.Name, Number: p.Number, Motor: motors[i]}
	}
	return draws
}
