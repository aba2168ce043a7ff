package shared

import "context"

// Tier enumerates subscription levels that gate GL report access and the
// privileged period operations. Tier checks happen upstream; the core only
// consumes the pre-checked capability set.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

// Finance grants the gateway may attach to a request. GL viewing is gated
// by tier rather than a grant, and any authenticated actor may post.
const (
	PermPeriodClose   = "finance.period.close"
	PermPeriodReopen  = "finance.period.reopen"
	PermBackdatedPost = "finance.gl.backdate"
)

// Actor is the pre-authorized caller identity attached to each request.
type Actor struct {
	ID            int64
	Tier          Tier
	AllowClose    bool
	AllowReopen   bool
	AllowBackdate bool
}

// CanViewReports gates GL report access by subscription tier.
func (a Actor) CanViewReports() bool {
	return a.Tier == TierPro || a.Tier == TierEnterprise
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
