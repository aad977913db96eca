// Package identity classifies the already-authenticated caller of an
// invocation into a role. The surrounding platform handles enrollment
// and authentication; all that arrives here is an opaque organization
// tag (an MSP id), and all that leaves is a Role the dispatcher can
// authorize against.
package identity

// Role is the closed set of caller classifications. Unrecognized
// organizations map to RoleUnauthorized; rejecting them is the
// dispatcher's job, not this package's.
type Role string

const (
	RoleAirline      Role = "airline"
	RoleTravelAgency Role = "travel-agency"
	RoleUnauthorized Role = "unauthorized"
)

// Resolve maps an organization tag to its role. Pure function of the
// network config; no side effects, no failure path.
func (n *Network) Resolve(mspID string) Role {
	for _, org := range n.Organizations {
		if org.MSPID == mspID {
			return org.Role
		}
	}
	return RoleUnauthorized
}

// CarrierCode returns the flight-number prefix assigned to an airline
// organization. The second return is false for agencies and unknown orgs.
func (n *Network) CarrierCode(mspID string) (string, bool) {
	for _, org := range n.Organizations {
		if org.MSPID == mspID && org.Role == RoleAirline {
			return org.CarrierCode, org.CarrierCode != ""
		}
	}
	return "", false
}
