// Package kickstart reads and writes the kickstart commands handled by the
// storage modules.
package kickstart

import (
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
)

// ErrSyntax is returned for malformed kickstart input.
var ErrSyntax = fmt.Errorf("kickstart: syntax error: %w", errdefs.ErrInvalidArgument)

// ZFCPData is one zfcp command
type ZFCPData struct {
	DevNum string `json:"devnum" yaml:"devnum"`
	WWPN   string `json:"wwpn" yaml:"wwpn"`
	FCPLun string `json:"fcplun" yaml:"fcplun"`
	// Line is the source line number, 0 for generated data
	Line int `json:"-" yaml:"-"`
}

// String renders the command
func (d *ZFCPData) String() string {
	return fmt.Sprintf("zfcp --devnum=%s --wwpn=%s --fcplun=%s", d.DevNum, d.WWPN, d.FCPLun)
}

// Data holds kickstart commands in source order
type Data struct {
	ZFCP []*ZFCPData `json:"zfcp,omitempty" yaml:"zfcp,omitempty"`
	// Unhandled keeps the names of commands this package does not process
	Unhandled []string `json:"-" yaml:"-"`
}

// String renders the handled commands, one per line
func (d *Data) String() string {
	if d == nil {
		return ""
	}
	builder := strings.Builder{}
	for _, zfcp := range d.ZFCP {
		builder.WriteString(zfcp.String())
		builder.WriteByte('\n')
	}
	return builder.String()
}
