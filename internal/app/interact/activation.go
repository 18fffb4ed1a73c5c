package interact

import (
	"strings"

	"github.com/SharmaG-28/Virtual-Campus/internal/app/world"
)

// Zone types with special interaction rules.
const (
	ZoneCareer  = "career"
	ZoneCoding  = "coding"
	ZoneMarket  = "market"
	ZoneLibrary = "library"
	zoneClub    = "club"
)

// Activation is the named event emitted when an object or zone is used.
type Activation struct {
	Event         string
	Kind          Kind // zero for zone activations
	ObjectID      string
	ZoneID        string
	ZoneType      string
	GameType      string
	ParticipantID string
}

// ActivationSink receives activations. Implementations must not block.
type ActivationSink interface {
	Activate(a Activation)
}

// ActivationFunc adapts a function to ActivationSink.
type ActivationFunc func(a Activation)

// Activate calls f(a).
func (f ActivationFunc) Activate(a Activation) {
	f(a)
}

// activationFor maps an object to its event. zoneType is the type of the
// zone the participant stands in. Seats have no event and report false.
func activationFor(it Interactable, zoneType, participantID string) (Activation, bool) {
	a := Activation{
		Kind:          it.Kind,
		ObjectID:      it.ID,
		ZoneType:      zoneType,
		ParticipantID: participantID,
	}

	switch it.Kind {
	case Noticeboard:
		a.Event = "open-whiteboard"

	case Terminal:
		served := it.ZoneType
		if served == "" {
			served = zoneType
		}
		a.ZoneType = served
		a.Event = terminalEvent(served)

	case Cupboard:
		shelf := it.ZoneType
		if shelf == "" {
			shelf = cupboardShelf(zoneType)
		}
		a.ZoneType = shelf
		a.Event = cupboardEvent(shelf)

	case ActivityTable:
		a.GameType = it.GameType
		if a.GameType == "" {
			a.GameType = "general"
		}
		a.Event = "open-game-selection"

	default:
		return Activation{}, false
	}
	return a, true
}

func terminalEvent(zoneType string) string {
	switch zoneType {
	case ZoneCareer:
		return "open-career-portal"
	case ZoneCoding:
		return "open-coding-portal"
	case "":
		return "open-computer-portal"
	default:
		return "open-" + zoneType + "-portal"
	}
}

func cupboardShelf(zoneType string) string {
	switch {
	case zoneType == ZoneMarket:
		return "marketplace"
	case strings.HasPrefix(zoneType, zoneClub):
		return zoneClub
	default:
		return "cupboard"
	}
}

func cupboardEvent(shelf string) string {
	switch shelf {
	case ZoneLibrary:
		return "open-elibrary"
	case "marketplace", ZoneMarket:
		return "open-marketplace"
	case zoneClub:
		return "open-club-resources"
	case "cupboard":
		return "open-cupboard-resources"
	default:
		return "open-" + shelf + "-resources"
	}
}

// zoneActivation is the event for using a zone itself.
func zoneActivation(z world.Zone, participantID string) Activation {
	a := Activation{ZoneID: z.ID, ZoneType: z.Type, ParticipantID: participantID}

	switch t := z.Type; {
	case t == ZoneLibrary:
		a.Event = "open-elibrary-portal"
	case t == ZoneMarket:
		a.Event = "open-marketplace-portal"
	case t == world.ZoneGaming:
		a.Event = "open-game-selection-portal"
	case strings.HasPrefix(t, zoneClub):
		a.Event = "open-club-resources-portal"
	default:
		// academic, finance, compdept, itdept, career and coding follow the pattern.
		a.Event = "open-" + t + "-portal"
	}
	return a
}
