package backend

import "github.com/cantrip-labs/psxcore/internal/cdrom"

// CDROMAdapter narrows a CDROMBackend down to the cdrom.Backend interface
// the controller actually depends on, so cdrom.New never needs to know
// about Init/Cleanup lifecycle methods it has no use for.
type CDROMAdapter struct {
	Backend CDROMBackend
}

func (a CDROMAdapter) ReadSector(lba uint32) ([]byte, error) {
	return a.Backend.ReadSector(lba)
}

var _ cdrom.Backend = CDROMAdapter{}
