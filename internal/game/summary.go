package game

import (
	"github.com/thraizz/uno-server-go/internal/game/watchers"
)

// PlayerSummary is one seat's tallies at the end of a game.
type PlayerSummary struct {
	Seat           int            `json:"seat"`
	PlayerID       string         `json:"player_id"`
	Name           string         `json:"name"`
	CPU            bool           `json:"cpu"`
	CardsPlayed    int            `json:"cards_played"`
	CardsDrawn     int            `json:"cards_drawn"`
	FinalHandSize  int            `json:"final_hand_size"`
	CountersEarned map[string]int `json:"counters_earned"`
	Counters       map[string]int `json:"counters"`
}

// Summary is the record persisted for a finished (or abandoned) game.
type Summary struct {
	GameID     string          `json:"game_id"`
	Finished   bool            `json:"finished"`
	Winner     int             `json:"winner"`
	WinnerName string          `json:"winner_name,omitempty"`
	Turns      int             `json:"turns"`
	Reshuffles int             `json:"reshuffles"`
	Actions    map[string]int  `json:"actions"`
	Players    []PlayerSummary `json:"players"`
}

// Summary collects the watcher tallies for the game.
func (g *Game) Summary() Summary {
	s := Summary{
		GameID:     g.id,
		Finished:   g.over,
		Winner:     g.winner,
		Turns:      g.turns.TurnNumber(),
		Reshuffles: g.reshuffles.GetCount(),
		Actions:    g.actions.Counts(),
		Players:    make([]PlayerSummary, len(g.players)),
	}
	if g.over {
		s.WinnerName = g.players[g.winner].Name
	}
	for i, p := range g.players {
		ps := PlayerSummary{
			Seat:          i,
			PlayerID:      p.ID,
			Name:          p.Name,
			CPU:           p.CPU,
			CardsPlayed:   g.cardsPlayed.GetCount(p.ID),
			CardsDrawn:    g.cardsDrawn.GetCount(p.ID),
			FinalHandSize: p.HandSize(),
			Counters:      p.Counters.Snapshot(),
		}
		key := watchers.NewCountersEarnedWatcher(p.ID).GetKey()
		if w, ok := g.watchers.GetWatcher(key).(*watchers.CountersEarnedWatcher); ok {
			ps.CountersEarned = w.All()
		}
		s.Players[i] = ps
	}
	return s
}
