package sig

import (
	"fmt"

	"github.com/symkeep/symkeep/internal/provider"
)

// RVAHint returns a method's relative virtual address (native entry minus
// module base) as a hex string, or "" when either address is unavailable.
//
// The hint is invalidated by essentially any rebuild; it is stored as an
// auxiliary breadcrumb only and never used for re-identification.
func RVAHint(sess provider.Session, module string, m provider.Method) string {
	entry, ok := m.NativeEntry()
	if !ok {
		return ""
	}
	base, ok := sess.ModuleBase(module)
	if !ok || entry < base {
		return ""
	}
	return fmt.Sprintf("0x%X", entry-base)
}
