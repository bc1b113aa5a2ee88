package env

import (
	"github.com/denisbrodbeck/machineid"
)

// MachineIDLen is the length of the derived device id.
const MachineIDLen = 12

// MachineID derives a stable device id from the id of the machine. The raw
// machine id is never exposed.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID("rrr")
	if err != nil {
		return "", err
	}
	if len(id) > MachineIDLen {
		id = id[:MachineIDLen]
	}
	return id, nil
}
