package identity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Organization is one member of the network.
type Organization struct {
	// MSPID is the opaque organization tag the platform attaches to
	// each invocation.
	MSPID string `yaml:"msp_id"`

	// Role classifies the organization.
	Role Role `yaml:"role"`

	// CarrierCode prefixes generated flight numbers. Required for
	// airlines, forbidden for agencies.
	CarrierCode string `yaml:"carrier_code,omitempty"`
}

// Network is the membership configuration: which organizations exist
// and what they are allowed to act as.
type Network struct {
	Organizations []Organization `yaml:"organizations"`
}

// DefaultNetwork returns the compiled-in membership matching the
// reference deployment: two airlines and one travel agency.
func DefaultNetwork() *Network {
	return &Network{
		Organizations: []Organization{
			{MSPID: "Org1MSP", Role: RoleAirline, CarrierCode: "EC"},
			{MSPID: "Org2MSP", Role: RoleAirline, CarrierCode: "BS"},
			{MSPID: "Org3MSP", Role: RoleTravelAgency},
		},
	}
}

// LoadNetwork reads a network config from a YAML file and validates it.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}

	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("load network: parse %s: %w", path, err)
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("load network: %s: %w", path, err)
	}
	return &n, nil
}

// Validate checks the membership config for internal consistency.
func (n *Network) Validate() error {
	if len(n.Organizations) == 0 {
		return fmt.Errorf("network has no organizations")
	}

	seenMSP := make(map[string]bool)
	seenCarrier := make(map[string]bool)
	for _, org := range n.Organizations {
		if org.MSPID == "" {
			return fmt.Errorf("organization with empty msp_id")
		}
		if seenMSP[org.MSPID] {
			return fmt.Errorf("duplicate organization %q", org.MSPID)
		}
		seenMSP[org.MSPID] = true

		switch org.Role {
		case RoleAirline:
			if org.CarrierCode == "" {
				return fmt.Errorf("airline %q has no carrier_code", org.MSPID)
			}
			if seenCarrier[org.CarrierCode] {
				return fmt.Errorf("duplicate carrier_code %q", org.CarrierCode)
			}
			seenCarrier[org.CarrierCode] = true
		case RoleTravelAgency:
			if org.CarrierCode != "" {
				return fmt.Errorf("travel agency %q must not set carrier_code", org.MSPID)
			}
		default:
			return fmt.Errorf("organization %q has invalid role %q", org.MSPID, org.Role)
		}
	}
	return nil
}
