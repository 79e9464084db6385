package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OwnerKind identifies the kind of party that owns stock, invoices or gift cards
type OwnerKind string

const (
	OwnerShop        OwnerKind = "SHOP"
	OwnerRetailer    OwnerKind = "RETAILER"
	OwnerDoctor      OwnerKind = "DOCTOR"
	OwnerDistributor OwnerKind = "DISTRIBUTOR"
)

// IsValid checks if the owner kind is valid
func (k OwnerKind) IsValid() bool {
	switch k {
	case OwnerShop, OwnerRetailer, OwnerDoctor, OwnerDistributor:
		return true
	}
	return false
}

// String returns the string representation
func (k OwnerKind) String() string {
	return string(k)
}

// OwnerKey is the tenant scope of a row: the owning party kind and id
type OwnerKey struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// NewOwnerKey builds an owner key
func NewOwnerKey(kind OwnerKind, id uuid.UUID) OwnerKey {
	return OwnerKey{Kind: kind, ID: id}
}

func (o OwnerKey) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.ID)
}

// IsZero reports whether the key is unset
func (o OwnerKey) IsZero() bool {
	return o.Kind == "" && o.ID == uuid.Nil
}

// Role is the closed set of caller roles. Only the variants declared in this
// file implement it.
type Role interface {
	role()
	Name() string
}

// ShopRole is a shop operator or approver acting for one shop
type ShopRole struct{ ShopID uuid.UUID }

// RetailerRole is a regional retailer distributing to shops
type RetailerRole struct{ RetailerID uuid.UUID }

// DoctorRole is a prescribing doctor; holds invoices but no stock
type DoctorRole struct{ DoctorID uuid.UUID }

// DistributorRole is a company distributor supplying retailers
type DistributorRole struct{ DistributorID uuid.UUID }

func (ShopRole) role()        {}
func (RetailerRole) role()    {}
func (DoctorRole) role()      {}
func (DistributorRole) role() {}

func (ShopRole) Name() string        { return "shop" }
func (RetailerRole) Name() string    { return "retailer" }
func (DoctorRole) Name() string      { return "doctor" }
func (DistributorRole) Name() string { return "distributor" }

// ParseRole builds a Role from its wire name and the party id carried in a token
func ParseRole(name string, partyID uuid.UUID) (Role, error) {
	if partyID == uuid.Nil {
		return nil, NewValidationError("party id is required for role %q", name)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shop":
		return ShopRole{ShopID: partyID}, nil
	case "retailer":
		return RetailerRole{RetailerID: partyID}, nil
	case "doctor":
		return DoctorRole{DoctorID: partyID}, nil
	case "distributor":
		return DistributorRole{DistributorID: partyID}, nil
	default:
		return nil, NewValidationError("unknown role %q", name)
	}
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// NewPrincipal creates a principal
func NewPrincipal(userID uuid.UUID, role Role) Principal {
	return Principal{UserID: userID, Role: role}
}

// Owner returns the owner key the caller acts for
func (p Principal) Owner() OwnerKey {
	switch r := p.Role.(type) {
	case ShopRole:
		return NewOwnerKey(OwnerShop, r.ShopID)
	case RetailerRole:
		return NewOwnerKey(OwnerRetailer, r.RetailerID)
	case DoctorRole:
		return NewOwnerKey(OwnerDoctor, r.DoctorID)
	case DistributorRole:
		return NewOwnerKey(OwnerDistributor, r.DistributorID)
	default:
		return OwnerKey{}
	}
}

// CanHoldStock reports whether the caller's party owns inventory buckets
func (p Principal) CanHoldStock() bool {
	switch p.Role.(type) {
	case ShopRole, RetailerRole, DistributorRole:
		return true
	case DoctorRole:
		return false
	default:
		return false
	}
}

// RetailerID returns the retailer id when the caller is a retailer
func (p Principal) RetailerID() (uuid.UUID, bool) {
	if r, ok := p.Role.(RetailerRole); ok {
		return r.RetailerID, true
	}
	return uuid.Nil, false
}

// ShopID returns the shop id when the caller is a shop
func (p Principal) ShopID() (uuid.UUID, bool) {
	if r, ok := p.Role.(ShopRole); ok {
		return r.ShopID, true
	}
	return uuid.Nil, false
}

// Owns reports whether the caller acts for the given owner
func (p Principal) Owns(owner OwnerKey) bool {
	own := p.Owner()
	return !own.IsZero() && own == owner
}

// RequireStockHolder fails with ForbiddenError when the caller cannot own stock
func (p Principal) RequireStockHolder() error {
	if p.Role == nil {
		return ErrUnauthorized
	}
	if !p.CanHoldStock() {
		return NewForbiddenError(fmt.Sprintf("role %s cannot hold inventory", p.Role.Name()))
	}
	return nil
}
