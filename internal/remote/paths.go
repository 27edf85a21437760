package remote

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pixil98/go-realm/internal/economy"
)

const (
	RoomsRoot    = "rooms"
	AccountsRoot = "accounts"
)

// Split breaks path into its segments and checks that every segment is usable as a
// store key and a broker subject token.
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if err := checkSegment(s); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, err)
		}
	}
	return segs, nil
}

// Join builds a path from segments without validating them.
func Join(segs ...string) string {
	return strings.Join(segs, "/")
}

// Root splits path into its document root (e.g. "rooms/r1") and the segments below it.
func Root(path string) (string, []string, error) {
	segs, err := Split(path)
	if err != nil {
		return "", nil, err
	}
	if len(segs) < 2 {
		return "", nil, fmt.Errorf("%w: %q has no document id", ErrInvalidPath, path)
	}
	switch segs[0] {
	case RoomsRoot, AccountsRoot:
	default:
		return "", nil, fmt.Errorf("%w: unknown root %q", ErrInvalidPath, segs[0])
	}
	return Join(segs[0], segs[1]), segs[2:], nil
}

// Subject maps a document path onto the broker subject its snapshots are published on.
func Subject(path string) string {
	return SnapshotPrefix + strings.ReplaceAll(path, "/", ".")
}

func checkSegment(s string) error {
	if s == "" {
		return fmt.Errorf("empty segment")
	}
	if strings.ContainsAny(s, ".*>") {
		return fmt.Errorf("segment %q contains a reserved character", s)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fmt.Errorf("segment %q contains whitespace", s)
	}
	return nil
}

func RoomPath(roomID string) string {
	return Join(RoomsRoot, roomID)
}

func WorldPath(roomID string) string {
	return Join(RoomsRoot, roomID, "world")
}

func PlayersPath(roomID string) string {
	return Join(RoomsRoot, roomID, "players")
}

func PlayerPath(roomID, actorID string) string {
	return Join(RoomsRoot, roomID, "players", actorID)
}

// PlayerField addresses a direct child of an actor document, e.g. "lastActive".
func PlayerField(roomID, actorID, field string) string {
	return Join(PlayerPath(roomID, actorID), field)
}

func ResourcePath(roomID, actorID string, good economy.Good) string {
	return Join(PlayerPath(roomID, actorID), "resources", string(good))
}

func StatusPath(roomID, actorID, field string) string {
	return Join(PlayerPath(roomID, actorID), "status", field)
}

func InventorySlotPath(roomID, actorID string, slot int) string {
	return Join(PlayerPath(roomID, actorID), "inventory", strconv.Itoa(slot))
}

// PositionPath addresses one axis ("x" or "y") of an actor's position.
func PositionPath(roomID, actorID, axis string) string {
	return Join(PlayerPath(roomID, actorID), "position", axis)
}

func MarketPath(roomID string) string {
	return Join(RoomsRoot, roomID, "market")
}

func MarketGoodPath(roomID string, good economy.Good) string {
	return Join(MarketPath(roomID), string(good))
}

func MarketStockPath(roomID string, good economy.Good) string {
	return Join(MarketGoodPath(roomID, good), "stock")
}

func AccountPath(uid string) string {
	return Join(AccountsRoot, uid)
}

func RosterPath(uid, roomID string) string {
	return Join(AccountsRoot, uid, "characterRoster", roomID)
}
