// ABOUTME: Terminal UI command
// ABOUTME: Starts the interactive browser on the shared session and record stores
package cli

import (
	"context"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/tui"
)

// TUICommand runs the interactive UI until the user quits. nav must be
// the navigator the app was built with so guard redirects reach the UI.
func TUICommand(ctx context.Context, a *app.App, nav *tui.Navigator, args []string) error {
	fs := newFlagSet("tui")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return tui.Run(ctx, a.Session, a.Guard, a.Records, nav)
}
