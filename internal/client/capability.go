package client

import (
	"errors"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/zeroshot/zeroshot/internal/log"
)

// Capabilities is the capability bitset a provider's argv builder gates
// flag emission on, detected once at startup from the provider's --help
// output per spec.md §6.
type Capabilities struct {
	SupportsJSON            bool
	SupportsOutputSchema    bool
	SupportsAutoApprove     bool
	SupportsCwd              bool
	SupportsConfigOverride  bool
	SupportsModel           bool
	SupportsStreamJSON      bool
	SupportsVerbose         bool
	SupportsIncludePartials bool
	SupportsJSONSchema      bool
	SupportsOutputFormat    bool
}

// optimisticCapabilities is every flag set to true, the default used when
// --help is unparseable (spec.md §6: "optimistic").
func optimisticCapabilities() Capabilities {
	return Capabilities{
		SupportsJSON:            true,
		SupportsOutputSchema:    true,
		SupportsAutoApprove:     true,
		SupportsCwd:             true,
		SupportsConfigOverride:  true,
		SupportsModel:           true,
		SupportsStreamJSON:      true,
		SupportsVerbose:         true,
		SupportsIncludePartials: true,
		SupportsJSONSchema:      true,
		SupportsOutputFormat:    true,
	}
}

// capabilityProbe is one entry in the table used to regex-match --help
// output into a Capabilities field.
type capabilityProbe struct {
	name    string
	pattern *regexp.Regexp
	set     func(*Capabilities, bool)
}

var capabilityProbes = []capabilityProbe{
	{"supportsJson", regexp.MustCompile(`(?i)--json\b`), func(c *Capabilities, v bool) { c.SupportsJSON = v }},
	{"supportsOutputSchema", regexp.MustCompile(`(?i)--output-schema\b`), func(c *Capabilities, v bool) { c.SupportsOutputSchema = v }},
	{"supportsAutoApprove", regexp.MustCompile(`(?i)--(auto-approve|yes|dangerously-skip-permissions)\b`), func(c *Capabilities, v bool) { c.SupportsAutoApprove = v }},
	{"supportsCwd", regexp.MustCompile(`(?i)--(cwd|working-dir)\b`), func(c *Capabilities, v bool) { c.SupportsCwd = v }},
	{"supportsConfigOverride", regexp.MustCompile(`(?i)--config\b`), func(c *Capabilities, v bool) { c.SupportsConfigOverride = v }},
	{"supportsModel", regexp.MustCompile(`(?i)--model\b`), func(c *Capabilities, v bool) { c.SupportsModel = v }},
	{"supportsStreamJson", regexp.MustCompile(`(?i)--(stream-json|format[= ]json)\b`), func(c *Capabilities, v bool) { c.SupportsStreamJSON = v }},
	{"supportsVerbose", regexp.MustCompile(`(?i)--verbose\b`), func(c *Capabilities, v bool) { c.SupportsVerbose = v }},
	{"supportsIncludePartials", regexp.MustCompile(`(?i)--include-partial(-messages)?\b`), func(c *Capabilities, v bool) { c.SupportsIncludePartials = v }},
	{"supportsJsonSchema", regexp.MustCompile(`(?i)--json-schema\b`), func(c *Capabilities, v bool) { c.SupportsJSONSchema = v }},
	{"supportsOutputFormat", regexp.MustCompile(`(?i)--output-format\b`), func(c *Capabilities, v bool) { c.SupportsOutputFormat = v }},
}

// ParseCapabilities regex-probes helpText for each known flag. Any probe
// that finds no match leaves the corresponding field at its zero value
// (false), except that an empty helpText, or one in which no probe matches
// at all, is treated as unparseable and yields the optimistic all-true
// default.
func ParseCapabilities(helpText string) Capabilities {
	if helpText == "" {
		return optimisticCapabilities()
	}
	var caps Capabilities
	matched := false
	for _, p := range capabilityProbes {
		if p.pattern.MatchString(helpText) {
			p.set(&caps, true)
			matched = true
		}
	}
	if !matched {
		return optimisticCapabilities()
	}
	return caps
}

// capabilityCache holds probe results keyed by "<path>@<mtime>" so a
// rebuilt or upgraded provider binary is re-probed, but repeated cluster
// starts against the same binary are not.
var capabilityCache = cache.New(1*time.Hour, 10*time.Minute)

var warnOnceMu sync.Mutex
var warnOnceSeen = map[string]struct{}{}

// ProbeCapabilities runs "<binaryPath> --help", parses the output, and
// caches the result for repeated calls against the same binary (by path and
// mtime). On any failure to run or stat the binary, it returns the
// optimistic all-true default without caching, since a transient failure
// shouldn't poison future probes.
func ProbeCapabilities(binaryPath string) Capabilities {
	info, err := os.Stat(binaryPath)
	if err != nil {
		return optimisticCapabilities()
	}

	key := binaryPath + "@" + info.ModTime().UTC().Format(time.RFC3339Nano)
	if cached, ok := capabilityCache.Get(key); ok {
		return cached.(Capabilities)
	}

	out, err := exec.Command(binaryPath, "--help").CombinedOutput()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return optimisticCapabilities()
	}
	caps := ParseCapabilities(string(out))
	capabilityCache.Set(key, caps, cache.DefaultExpiration)
	return caps
}

// WarnIfUnsupported emits a one-time warning (keyed by "<provider>-<feature>")
// when an explicitly-false capability causes the adapter to omit a flag it
// would otherwise emit, per spec.md §6.
func WarnIfUnsupported(provider, feature string, supported bool) {
	if supported {
		return
	}
	key := provider + "-" + feature
	warnOnceMu.Lock()
	_, seen := warnOnceSeen[key]
	if !seen {
		warnOnceSeen[key] = struct{}{}
	}
	warnOnceMu.Unlock()
	if seen {
		return
	}
	log.Warn(log.CatProvider, "capability not supported, omitting flag", "provider", provider, "feature", feature)
}
