package user

import (
	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
)

// Profile is the public face of a user. A user has at most one.
type Profile struct {
	id            shared.ID
	userID        shared.ID
	displayName   DisplayName
	walletAddress shared.WalletAddress

	events shared.Events
}

func NewProfile(userID shared.ID, name DisplayName, wallet shared.WalletAddress) *Profile {
	p := &Profile{id: shared.NewID(), userID: userID, displayName: name, walletAddress: wallet}
	p.events.Record(ProfileCreated{Meta: p.events.Meta(), UserID: userID, ProfileID: p.id})

	return p
}

func (p *Profile) ID() shared.ID                       { return p.id }
func (p *Profile) UserID() shared.ID                   { return p.userID }
func (p *Profile) DisplayName() DisplayName            { return p.displayName }
func (p *Profile) WalletAddress() shared.WalletAddress { return p.walletAddress }
func (p *Profile) Trace(c cbus.Cause)                  { p.events.Trace(c) }
func (p *Profile) DrainEvents() []cbus.DomainEvent     { return p.events.DrainEvents() }

type ProfileSnapshot struct {
	ID            shared.ID
	UserID        shared.ID
	DisplayName   DisplayName
	WalletAddress shared.WalletAddress
}

func (p *Profile) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{ID: p.id, UserID: p.userID, DisplayName: p.displayName, WalletAddress: p.walletAddress}
}

func RestoreProfile(s ProfileSnapshot) *Profile {
	return &Profile{id: s.ID, userID: s.UserID, displayName: s.DisplayName, walletAddress: s.WalletAddress}
}
