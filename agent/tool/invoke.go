package tool

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

// Invoke runs one capability call under its own deadline. A panic inside the capability is turned
// into an ErrCapability error so one misbehaving capability never takes the caller down.
func Invoke(ctx context.Context, c contractx.Capability, argsJSON string, timeout time.Duration) (out string, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			name := "unknown"
			if info := c.Info(); info != nil {
				name = info.Name
			}
			out, err = "", fmt.Errorf("%w: %s panicked: %v", contractx.ErrCapability, name, r)
		}
	}()

	return c.Invoke(ctx, argsJSON)
}
