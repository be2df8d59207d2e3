package controller

import (
	"fmt"
	"time"

	"surfsup-server/internal/modules/climate/types"
)

// parseDateParam validates a yyyy-mm-dd path variable and returns it in
// canonical form, which is also the storage form.
func parseDateParam(vars map[string]string, name string) (string, error) {
	s, ok := vars[name]
	if !ok || s == "" {
		return "", fmt.Errorf("missing '%s'", name)
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid '%s' (expected yyyy-mm-dd)", name)
	}
	return t.Format(types.DateLayout), nil
}
