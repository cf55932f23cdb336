package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Checksum returns the SHA-256 of the snapshot's canonical form. Map
// iteration order and timestamps do not affect it.
func (s *Snapshot) Checksum() string {
	sum := sha256.Sum256([]byte(s.canonical()))
	return hex.EncodeToString(sum[:])
}

func (s *Snapshot) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%s|%s|%d|%d|%d|%d|%d|%t|%d\n",
		s.GameID,
		s.Turn,
		s.TopCard.Name,
		s.ActiveColor,
		s.CurrentPlayer,
		s.ExpectedActor,
		s.Direction,
		s.DrawSize,
		s.DiscardSize,
		s.Over,
		s.Winner,
	)

	if p := s.Pending; p != nil {
		fmt.Fprintf(&buf, "PENDING:%s|%d|%d|%d|%t|%d|%d\n",
			p.Kind, p.Actor, p.Victim, p.Target, p.TargetChosen, p.Count, p.FreePlayIndex)
	}

	// seat order matters
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%s|%t|%d\n", p.Seat, p.ID, p.Name, p.CPU, p.HandSize)

		names := make([]string, 0, len(p.Counters))
		for name := range p.Counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&buf, "  COUNTER:%s=%d\n", name, p.Counters[name])
		}
		if p.Jail != nil {
			fmt.Fprintf(&buf, "  JAIL:%s\n", p.Jail.Name)
		}

		hand := make([]string, len(p.Hand))
		for i, c := range p.Hand {
			hand[i] = c.Name
		}
		buf.WriteString("  HAND:")
		buf.WriteString(strings.Join(hand, ","))
		buf.WriteString("\n")
	}

	return buf.String()
}

// EncodeSnapshot serialises a snapshot with gob.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// ValidateRoundtrip checks that a snapshot survives encode and decode with
// an unchanged checksum.
func ValidateRoundtrip(s *Snapshot) error {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}
	decoded, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if want, got := s.Checksum(), decoded.Checksum(); want != got {
		return fmt.Errorf("checksum mismatch: original=%s, decoded=%s", want, got)
	}
	return nil
}
