package env

import (
	"github.com/denisbrodbeck/machineid"
)

const appID = "shdlc"

// MachineID retrieves the ID identifying the machine, hashed with the
// application ID.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return "", err
	}
	return id[:16], nil
}
