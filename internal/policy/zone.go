package policy

import (
	"context"

	"github.com/diewo77/golf-referee/gate"
	"github.com/diewo77/golf-referee/internal/models"
)

// Zoned is implemented by resources scoped to a regional zone.
type Zoned interface {
	ZoneScope() (uint, bool)
}

// ZonePolicy keeps zone administrators inside their zone. Super admins and
// admins without a zone (national staff) are unrestricted, as are
// non-admin roles, whose profile already limits them to reads.
type ZonePolicy struct {
	dir Directory
}

func NewZonePolicy(dir Directory) *ZonePolicy {
	return &ZonePolicy{dir: dir}
}

func (p *ZonePolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	u, err := p.dir.User(ctx, userID)
	if err != nil {
		return false
	}
	if u.Role != models.RoleAdmin || u.ZoneID == nil {
		return true
	}
	zoned, ok := resource.(Zoned)
	if !ok {
		return false
	}
	zone, scoped := zoned.ZoneScope()
	if !scoped {
		// National resources are readable by every admin but only
		// national staff may change them.
		return action == gate.ActionView || action == gate.ActionList
	}
	return zone == *u.ZoneID
}

// ConvocationPolicy lets admins print any convocation in their scope and
// referees only the ones they are assigned to. The resource must be a
// tournament with its assignments loaded.
type ConvocationPolicy struct {
	dir   Directory
	zones *ZonePolicy
}

func NewConvocationPolicy(dir Directory) *ConvocationPolicy {
	return &ConvocationPolicy{dir: dir, zones: NewZonePolicy(dir)}
}

func (p *ConvocationPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	t, ok := resource.(*models.Tournament)
	if !ok {
		return false
	}
	u, err := p.dir.User(ctx, userID)
	if err != nil {
		return false
	}
	if u.IsAdmin() {
		return p.zones.Can(ctx, userID, action, t)
	}
	return t.HasReferee(userID)
}
