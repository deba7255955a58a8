// ABOUTME: Format negotiation with an activated client
// ABOUTME: Preferred format, then the platform's closest match, then the mix format
package device

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio"
	"github.com/decred/slog"
)

// Negotiation records which path produced the session format
type Negotiation int

const (
	NegotiatedPreferred Negotiation = iota
	NegotiatedClosest
	NegotiatedMix
)

func (n Negotiation) String() string {
	switch n {
	case NegotiatedPreferred:
		return "preferred"
	case NegotiatedClosest:
		return "closest"
	case NegotiatedMix:
		return "mix"
	default:
		return fmt.Sprintf("Negotiation(%d)", int(n))
	}
}

// Negotiate picks the wire format for client. A supported preferred format
// is used as-is; otherwise a proposed closest match wins; otherwise the
// device's native mix format is used.
func Negotiate(client Client, preferred audio.Format, log slog.Logger) (audio.Format, Negotiation, error) {
	if log == nil {
		log = slog.Disabled
	}

	supported, closest, err := client.IsFormatSupported(preferred)
	if err != nil {
		log.Debugf("Format support query for %s failed: %v", preferred, err)
	}
	if err == nil && supported {
		return preferred, NegotiatedPreferred, nil
	}

	if closest != nil {
		log.Warnf("Format %s not supported, falling back to closest match %s",
			preferred, *closest)
		return *closest, NegotiatedClosest, nil
	}

	mix, err := client.MixFormat()
	if err != nil {
		return audio.Format{}, NegotiatedMix, fmt.Errorf("failed to query mix format: %w", err)
	}
	log.Warnf("Format %s not supported, falling back to the device mix format %s",
		preferred, mix)
	return mix, NegotiatedMix, nil
}
