package importer

import (
	"fmt"
	"strings"

	"github.com/franz/media-tracker/internal/media"
)

// AcceptPolicy picks which new candidates of a run get persisted
type AcceptPolicy string

const (
	// AcceptNone persists nothing; the run is review only
	AcceptNone AcceptPolicy = "none"
	// AcceptTop persists the best new candidate of each matched entry
	AcceptTop AcceptPolicy = "top"
	// AcceptAll persists every new candidate of each matched entry
	AcceptAll AcceptPolicy = "all"
)

// ParseAcceptPolicy parses a policy name
func ParseAcceptPolicy(s string) (AcceptPolicy, error) {
	switch p := AcceptPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case AcceptNone, AcceptTop, AcceptAll:
		return p, nil
	case "":
		return AcceptNone, nil
	}
	return "", fmt.Errorf("unknown accept policy %q (want none, top or all)", s)
}

// SelectForAccept collects the candidates a policy accepts, in entry order
func SelectForAccept(outcomes []*Outcome, policy AcceptPolicy) []media.Candidate {
	if policy != AcceptTop && policy != AcceptAll {
		return nil
	}

	var out []media.Candidate
	for _, o := range outcomes {
		if o.Status != StatusSuccess && o.Status != StatusPartialDuplicate {
			continue
		}
		fresh := o.New()
		if len(fresh) == 0 {
			continue
		}
		if policy == AcceptTop {
			fresh = fresh[:1]
		}
		out = append(out, fresh...)
	}
	return out
}
