package compliance

import (
	"strconv"
	"strings"
)

// robotsRules is the subset of a robots.txt ruleset relevant to one user
// agent: the merged allow/disallow patterns and an optional crawl delay.
type robotsRules struct {
	allows     []string
	disallows  []string
	crawlDelay float64 // seconds, 0 when unspecified
}

// emptyRules permits everything. Used when no robots.txt exists (4xx).
func emptyRules() *robotsRules {
	return &robotsRules{}
}

// parseRobots extracts the rule group applying to userAgent from a robots.txt
// body. A group addressed to the agent by name takes precedence over the
// wildcard group; when only the wildcard group exists, it applies.
func parseRobots(body, userAgent string) *robotsRules {
	agent := strings.ToLower(userAgent)

	var (
		wildcard robotsRules
		specific robotsRules
		sawAgent bool

		inWildcard bool
		inSpecific bool
	)

	for _, line := range strings.Split(body, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			name := strings.ToLower(value)
			switch {
			case name == "*":
				inWildcard = true
				inSpecific = false
			case name == agent || strings.HasPrefix(agent, name):
				inSpecific = true
				inWildcard = false
				sawAgent = true
			default:
				inWildcard = false
				inSpecific = false
			}
		case "allow":
			if value == "" {
				continue
			}
			if inSpecific {
				specific.allows = append(specific.allows, value)
			} else if inWildcard {
				wildcard.allows = append(wildcard.allows, value)
			}
		case "disallow":
			// An empty disallow value permits everything.
			if value == "" {
				continue
			}
			if inSpecific {
				specific.disallows = append(specific.disallows, value)
			} else if inWildcard {
				wildcard.disallows = append(wildcard.disallows, value)
			}
		case "crawl-delay":
			delay, err := strconv.ParseFloat(value, 64)
			if err != nil || delay < 0 {
				continue
			}
			if inSpecific {
				specific.crawlDelay = delay
			} else if inWildcard {
				wildcard.crawlDelay = delay
			}
		}
	}

	if sawAgent {
		return &specific
	}
	return &wildcard
}

// allowed applies longest-match precedence: the most specific matching rule
// wins, and an allow beats a disallow of equal length. No matching rule
// means allowed.
func (r *robotsRules) allowed(path string) bool {
	if path == "" {
		path = "/"
	}

	longestAllow := -1
	for _, p := range r.allows {
		if strings.HasPrefix(path, p) && len(p) > longestAllow {
			longestAllow = len(p)
		}
	}
	longestDisallow := -1
	for _, p := range r.disallows {
		if strings.HasPrefix(path, p) && len(p) > longestDisallow {
			longestDisallow = len(p)
		}
	}

	if longestDisallow < 0 {
		return true
	}
	return longestAllow >= longestDisallow
}
