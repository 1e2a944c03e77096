package typescript

import (
	"fmt"
	"time"

	"goa.design/mcpgen/telemetry"
)

// CollisionPolicy decides what happens when two capabilities map to the same
// generated identifier.
type CollisionPolicy string

const (
	// CollisionLastWins keeps the later definition and drops the earlier
	// one.
	CollisionLastWins CollisionPolicy = "last-wins"
	// CollisionSuffix keeps both definitions and appends a numeric suffix,
	// starting at 2, to the later one.
	CollisionSuffix CollisionPolicy = "suffix"
)

// CollisionKind identifies the kind of contested identifier.
type CollisionKind string

const (
	// CollisionDeclaration is a contested input declaration name.
	CollisionDeclaration CollisionKind = "declaration"
	// CollisionMethod is a contested method name within a class.
	CollisionMethod CollisionKind = "method"
	// CollisionClass is a contested class name, e.g. servers "my-server"
	// and "my_server".
	CollisionClass CollisionKind = "class"
)

type (
	// Options configures module generation. Start from DefaultOptions: the
	// zero value disables IncludeComments and TreeShakable, which are both
	// on by default. A nil *Options selects DefaultOptions.
	Options struct {
		// OutputPath is recorded in the header comment. It has no other
		// effect.
		OutputPath string
		// ClientPrefix is reserved and currently unused.
		ClientPrefix string
		// IncludeComments turns descriptions into documentation comments.
		IncludeComments bool
		// TreeShakable emits a lazily created shared instance and its
		// accessor function for every class.
		TreeShakable bool
		// Collisions is the identifier collision policy.
		Collisions CollisionPolicy
		// Now returns the time written in the header. Defaults to time.Now.
		Now func() time.Time
		// Logger receives generation diagnostics. Defaults to a no-op
		// logger.
		Logger telemetry.Logger
	}

	// Collision records one identifier claimed by two capabilities.
	Collision struct {
		Kind CollisionKind
		// Identifier is the contested identifier.
		Identifier string
		// Server is the server of the later capability.
		Server string
		// Previous names the capability that claimed Identifier first,
		// qualified with its server for declarations.
		Previous string
		// Current names the capability claiming Identifier again.
		Current string
		// Resolved is the identifier Current ended up with: Identifier
		// under CollisionLastWins, a suffixed variant under CollisionSuffix.
		// A declaration name used by another server is always qualified
		// with the server name ("NotionSearchInput").
		Resolved string
	}
)

// DefaultOptions returns the default generation options.
func DefaultOptions() *Options {
	return &Options{
		IncludeComments: true,
		TreeShakable:    true,
		Collisions:      CollisionLastWins,
	}
}

// ParseCollisionPolicy validates a collision policy name. The empty string
// selects CollisionLastWins.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionLastWins:
		return CollisionLastWins, nil
	case CollisionSuffix:
		return CollisionSuffix, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want %q or %q)", s, CollisionLastWins, CollisionSuffix)
}

// String renders the collision for diagnostics.
func (c *Collision) String() string {
	if c.Resolved != "" && c.Resolved != c.Identifier {
		return fmt.Sprintf("%s %s: %s renamed to %s (already used by %s)", c.Kind, c.Identifier, c.Current, c.Resolved, c.Previous)
	}
	return fmt.Sprintf("%s %s: %s replaces %s", c.Kind, c.Identifier, c.Current, c.Previous)
}

func (o *Options) withDefaults() *Options {
	if o == nil {
		o = DefaultOptions()
	}
	cp := *o
	if cp.Collisions == "" {
		cp.Collisions = CollisionLastWins
	}
	if cp.Now == nil {
		cp.Now = time.Now
	}
	if cp.Logger == nil {
		cp.Logger = telemetry.NewNoopLogger()
	}
	return &cp
}
